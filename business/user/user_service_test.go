package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"onlineShop/domain"
	"onlineShop/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type fakeUserRepo struct {
	users     map[uint]domain.User
	nextID    uint
	createErr error
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint) (domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.NotFound("user not found")
	}
	return u, nil
}

func (r *fakeUserRepo) find(match func(domain.User) bool) (domain.User, error) {
	for _, u := range r.users {
		if match(u) {
			return u, nil
		}
	}
	return domain.User{}, domain.NotFound("user not found")
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) FindAll(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for id := uint(1); id <= r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uint) error {
	delete(r.users, id)
	return nil
}

type recordingDispatcher struct {
	sent []string
}

func (d *recordingDispatcher) DispatchVerificationEmail(_ context.Context, email, _ string) {
	d.sent = append(d.sent, email)
}

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type UserServiceSuite struct {
	suite.Suite
	repo       *fakeUserRepo
	dispatcher *recordingDispatcher
	tokens     *utils.TokenManager
	svc        *userService
}

func (s *UserServiceSuite) SetupTest() {
	s.repo = &fakeUserRepo{users: map[uint]domain.User{}}
	s.dispatcher = &recordingDispatcher{}
	s.tokens = utils.NewTokenManager("test-secret", 30*time.Minute)
	s.svc = NewUserService(s.repo, validator.New(), s.dispatcher, s.tokens, passthroughTx{})
}

func (s *UserServiceSuite) register(username, email string) domain.User {
	u, err := s.svc.Register(context.Background(), username, "password123", email)
	s.Require().NoError(err)
	return u
}

func (s *UserServiceSuite) TestRegister() {
	u := s.register("alice", "alice@example.com")

	s.Equal(uint(1), u.ID)
	s.Equal("alice", u.Username)
	s.Empty(u.HashedPassword)
	s.NotEqual("password123", s.repo.users[1].HashedPassword)
	s.True(utils.CheckPassword("password123", s.repo.users[1].HashedPassword))
	s.Equal([]string{"alice@example.com"}, s.dispatcher.sent)
}

func (s *UserServiceSuite) TestRegister_Duplicate() {
	s.register("alice", "alice@example.com")

	_, err := s.svc.Register(context.Background(), "alice2", "password123", "alice@example.com")
	s.ErrorIs(err, domain.ErrValidation)
	s.EqualError(err, MsgUserExists)

	_, err = s.svc.Register(context.Background(), "alice", "password123", "other@example.com")
	s.ErrorIs(err, domain.ErrValidation)

	s.Len(s.dispatcher.sent, 1)
}

func (s *UserServiceSuite) TestRegister_InvalidInput() {
	ctx := context.Background()

	_, err := s.svc.Register(ctx, "bob", "short", "bob@example.com")
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.svc.Register(ctx, "bob", "password123", "not-an-email")
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.svc.Register(ctx, "", "password123", "bob@example.com")
	s.ErrorIs(err, domain.ErrValidation)

	s.Empty(s.repo.users)
	s.Empty(s.dispatcher.sent)
}

func (s *UserServiceSuite) TestRegister_StoreFailureIsTransient() {
	s.repo.createErr = errors.New("insert failed")

	_, err := s.svc.Register(context.Background(), "bob", "password123", "bob@example.com")
	s.ErrorIs(err, domain.ErrTransient)
	s.Empty(s.dispatcher.sent)
}

func (s *UserServiceSuite) TestListUsers() {
	s.register("alice", "alice@example.com")
	s.register("bob", "bob@example.com")

	users, err := s.svc.ListUsers(context.Background())
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal("alice", users[0].Username)
	s.Equal("bob", users[1].Username)
	for _, u := range users {
		s.Empty(u.HashedPassword)
	}
}

func (s *UserServiceSuite) TestDeleteByUsername() {
	s.register("alice", "alice@example.com")

	msg, err := s.svc.DeleteByUsername(context.Background(), "alice")
	s.Require().NoError(err)
	s.Equal("User 'alice' has been deleted successfully.", msg)
	s.Empty(s.repo.users)

	_, err = s.svc.DeleteByUsername(context.Background(), "alice")
	s.ErrorIs(err, domain.ErrNotFound)
	s.EqualError(err, MsgUserNotFound)
}

func (s *UserServiceSuite) TestLogin() {
	s.register("alice", "alice@example.com")

	token, err := s.svc.Login(context.Background(), "alice", "password123")
	s.Require().NoError(err)

	claims, err := s.tokens.ParseJWT(token)
	s.Require().NoError(err)
	s.Equal("alice", claims.Subject)
	s.Equal("alice@example.com", claims.Email)
}

func (s *UserServiceSuite) TestLogin_BadCredentials() {
	s.register("alice", "alice@example.com")

	_, err := s.svc.Login(context.Background(), "alice", "wrong-password")
	s.ErrorIs(err, domain.ErrUnauthorized)
	s.EqualError(err, MsgInvalidCredentials)

	_, err = s.svc.Login(context.Background(), "nobody", "password123")
	s.ErrorIs(err, domain.ErrUnauthorized)
}

func (s *UserServiceSuite) TestLogin_UnknownUserStillComparesHash() {
	var hashes []string
	s.svc.checkPassword = func(password, hashed string) bool {
		hashes = append(hashes, hashed)
		return utils.CheckPassword(password, hashed)
	}

	_, err := s.svc.Login(context.Background(), "nobody", "password123")
	s.ErrorIs(err, domain.ErrUnauthorized)
	s.Require().Len(hashes, 1)
	s.NotEmpty(hashes[0])
}

func (s *UserServiceSuite) TestResolveSubject() {
	s.register("alice", "alice@example.com")

	u, err := s.svc.ResolveSubject(context.Background(), "alice")
	s.Require().NoError(err)
	s.Equal(uint(1), u.ID)
	s.Empty(u.HashedPassword)

	_, err = s.svc.ResolveSubject(context.Background(), "ghost")
	s.ErrorIs(err, domain.ErrNotFound)
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func TestRegister_LookupFailureIsTransient(t *testing.T) {
	repo := &lookupFailRepo{fakeUserRepo: &fakeUserRepo{users: map[uint]domain.User{}}}
	svc := NewUserService(repo, validator.New(), &recordingDispatcher{}, utils.NewTokenManager("s", time.Minute), passthroughTx{})

	_, err := svc.Register(context.Background(), "bob", "password123", "bob@example.com")
	require.ErrorIs(t, err, domain.ErrTransient)
	assert.Contains(t, err.Error(), "connection refused")
}

type lookupFailRepo struct {
	*fakeUserRepo
}

func (r *lookupFailRepo) FindByEmail(context.Context, string) (domain.User, error) {
	return domain.User{}, errors.New("connection refused")
}
