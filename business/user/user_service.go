package user

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"onlineShop/domain"
	"onlineShop/pkg/logger"
	"onlineShop/pkg/utils"

	"github.com/go-playground/validator/v10"
)

// UserRepository contract interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id uint) error
}

// EmailDispatcher enqueues a verification email. It never reports failure.
type EmailDispatcher interface {
	DispatchVerificationEmail(ctx context.Context, email, name string)
}

// TokenIssuer contract interface
type TokenIssuer interface {
	GenerateJWT(subject, email string) (string, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type userService struct {
	userRepo   UserRepository
	validate   *validator.Validate
	dispatcher EmailDispatcher
	tokens     TokenIssuer
	tx         Transactor

	checkPassword func(password, hashed string) bool
}

var (
	decoyHashOnce sync.Once
	decoyHash     string
)

// decoy is the hash compared against when the username is unknown. A failed
// login pays for one bcrypt comparison either way.
func decoy() string {
	decoyHashOnce.Do(func() {
		h, err := utils.HashPassword("decoy-password-never-matches")
		if err != nil {
			logger.Error("Failed to build decoy hash", "error", err)
			return
		}
		decoyHash = string(h)
	})
	return decoyHash
}

const (
	MsgUserExists         = "User already exists."
	MsgUserNotFound       = "User not found."
	MsgInvalidCredentials = "Incorrect username or password"
)

func NewUserService(
	userRepo UserRepository,
	validate *validator.Validate,
	dispatcher EmailDispatcher,
	tokens TokenIssuer,
	tx Transactor,
) *userService {
	return &userService{
		userRepo:   userRepo,
		validate:   validate,
		dispatcher: dispatcher,
		tokens:     tokens,
		tx:         tx,

		checkPassword: utils.CheckPassword,
	}
}

func (s *userService) Register(ctx context.Context, username, password, email string) (domain.User, error) {
	if err := s.validate.Var(username, "required"); err != nil {
		return domain.User{}, domain.Validation("username is required")
	}

	if err := s.validate.Var(email, "required,email"); err != nil {
		logger.Warn("Invalid email format", "error", err)
		return domain.User{}, domain.Validation("invalid email format")
	}

	if err := s.validate.Var(password, "required,min=8"); err != nil {
		logger.Warn("Invalid user password", "error", err)
		return domain.User{}, domain.Validation("password must be at least 8 characters")
	}

	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := domain.User{
		Username:       username,
		HashedPassword: string(passwordHash),
		Email:          email,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureAvailable(ctx, username, email); err != nil {
			return err
		}

		return s.userRepo.Create(ctx, &newUser)
	})
	if err != nil {
		logger.Error("Failed to create new user", "username", username, "error", err)
		return domain.User{}, domain.Transient(err)
	}

	s.dispatcher.DispatchVerificationEmail(ctx, newUser.Email, newUser.Username)
	logger.Info("User registered", "user_id", newUser.ID)

	newUser.HashedPassword = ""
	return newUser, nil
}

func (s *userService) ensureAvailable(ctx context.Context, username, email string) error {
	for _, find := range []func() (domain.User, error){
		func() (domain.User, error) { return s.userRepo.FindByEmail(ctx, email) },
		func() (domain.User, error) { return s.userRepo.FindByUsername(ctx, username) },
	} {
		_, err := find()
		if err == nil {
			return domain.Validation(MsgUserExists)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}

	return nil
}

func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to get all users", "error", err)
		return nil, err
	}

	for i := range users {
		users[i].HashedPassword = ""
	}

	return users, nil
}

// DeleteByUsername soft deletes the user and returns the confirmation message.
func (s *userService) DeleteByUsername(ctx context.Context, username string) (string, error) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.FindByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound(MsgUserNotFound)
			}
			return err
		}

		return s.userRepo.Delete(ctx, user.ID)
	})
	if err != nil {
		logger.Error("Failed to delete user", "username", username, "error", err)
		return "", domain.Transient(err)
	}

	return fmt.Sprintf("User '%s' has been deleted successfully.", username), nil
}

// Login verifies the credentials and issues an access token whose subject is the username.
func (s *userService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.checkPassword(password, decoy())
			return "", domain.Unauthorized(MsgInvalidCredentials)
		}
		logger.Error("Failed to find user for login", "error", err)
		return "", err
	}

	if !s.checkPassword(password, user.HashedPassword) {
		logger.Warn("User password incorrect", "username", username)
		return "", domain.Unauthorized(MsgInvalidCredentials)
	}

	token, err := s.tokens.GenerateJWT(user.Username, user.Email)
	if err != nil {
		logger.Error("Failed to generate token", "error", err)
		return "", errors.New("failed to generate token")
	}

	return token, nil
}

// ResolveSubject maps a token subject back to a live user record.
func (s *userService) ResolveSubject(ctx context.Context, username string) (domain.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return domain.User{}, err
	}

	user.HashedPassword = ""
	return user, nil
}
