package middleware

import (
	"context"
	"net/http"
	"strings"

	"onlineShop/domain"
	"onlineShop/pkg/logger"
	jsonres "onlineShop/pkg/response"
	"onlineShop/pkg/utils"

	"github.com/labstack/echo/v4"
)

const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"

	msgInvalidCredentials = "Could not validate credentials"
)

// TokenParser contract interface
type TokenParser interface {
	ParseJWT(token string) (*utils.Claims, error)
}

// SubjectResolver maps a token subject to a live user.
type SubjectResolver interface {
	ResolveSubject(ctx context.Context, username string) (domain.User, error)
}

// AuthMiddleware accepts a bearer JWT whose subject resolves to an existing user.
func AuthMiddleware(tokens TokenParser, users SubjectResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return unauthorized(c)
			}

			tokenParts := strings.SplitN(authHeader, " ", 2)
			if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") || tokenParts[1] == "" {
				return unauthorized(c)
			}

			claims, err := tokens.ParseJWT(tokenParts[1])
			if err != nil {
				logger.Warn("Token could not be decoded", "error", err)
				return unauthorized(c)
			}

			user, err := users.ResolveSubject(c.Request().Context(), claims.Subject)
			if err != nil {
				logger.Warn("Token subject could not be resolved", "username", claims.Subject, "error", err)
				return unauthorized(c)
			}

			c.Set(ContextKeyUserID, user.ID)
			c.Set(ContextKeyUsername, user.Username)

			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, jsonres.Message(msgInvalidCredentials))
}

// UserID returns the authenticated user's id set by AuthMiddleware.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(ContextKeyUserID).(uint)
	return id, ok
}
