package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"onlineShop/internal/rest"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_AppliesAuthOnlyWhereFlagged(t *testing.T) {
	e := echo.New()
	validate := validator.New()
	routes := Routes(Handlers{
		Cart:    rest.NewCartHandler(nil, validate, time.Second),
		Product: rest.NewProductHandler(nil, validate, time.Second),
		User:    rest.NewUserHandler(nil, validate, time.Second),
	})
	require.Len(t, routes, 13)

	denyAll := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error { return echo.ErrUnauthorized }
	}
	Register(e, routes, denyAll)

	registered := map[string]bool{}
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	for _, r := range routes {
		assert.True(t, registered[r.Method+" "+r.Path], r.Path)
		if !r.Auth {
			continue
		}

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(r.Method, concretePath(r.Path), nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.Path)
	}
}

func concretePath(p string) string {
	switch p {
	case "/cart/remove/:product_id/":
		return "/cart/remove/1/"
	case "/products/update/:id/":
		return "/products/update/1/"
	case "/products/delete/:id/":
		return "/products/delete/1/"
	}
	return p
}

func TestSetupOpsRoutes_Healthz(t *testing.T) {
	e := echo.New()
	SetupOpsRoutes(e, map[string]Check{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"postgres":"ok","redis":"connection refused"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
