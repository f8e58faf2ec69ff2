package rest

import (
	"context"
	"net/http"
	"time"

	"onlineShop/domain"
	jsonres "onlineShop/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type UserService interface {
	Register(ctx context.Context, username, password, email string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	DeleteByUsername(ctx context.Context, username string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type UserHandler struct {
	userService UserService
	validate    *validator.Validate
	timeout     time.Duration
}

func NewUserHandler(userService UserService, validate *validator.Validate, timeout time.Duration) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validate,
		timeout:     timeout,
	}
}

func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	user, err := h.userService.Register(ctx, req.Username, req.Password, req.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, UserResponse{ID: user.ID, Username: user.Username})
}

func (h *UserHandler) GetUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	users, err := h.userService.ListUsers(ctx)
	if err != nil {
		return err
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, UserResponse{ID: u.ID, Username: u.Username})
	}

	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "username query parameter is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	msg, err := h.userService.DeleteByUsername(ctx, username)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.Message(msg))
}

func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	token, err := h.userService.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}
