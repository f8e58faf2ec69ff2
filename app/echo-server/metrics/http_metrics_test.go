package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_CountsByRouteAndStatus(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/products/all/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/cart/", func(c echo.Context) error { return echo.ErrUnauthorized })

	for _, path := range []string{"/products/all/", "/products/all/", "/cart/"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "/products/all/", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "/cart/", "401")))
}
