package middleware

import (
	"errors"
	"net/http"

	"onlineShop/domain"
	"onlineShop/pkg/logger"
	jsonres "onlineShop/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders handler errors as {"detail": msg} with a status taken from the error kind.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, jsonres.Message(msg))
	}
	if err != nil {
		logger.Error("Failed to write error response", "error", err)
	}
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
