package router

import (
	"context"
	"net/http"
	"time"

	"onlineShop/internal/rest"
	"onlineShop/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Route is one entry of the HTTP surface. Auth routes run behind the auth middleware.
type Route struct {
	Method  string
	Path    string
	Handler echo.HandlerFunc
	Auth    bool
}

type Handlers struct {
	Cart    *rest.CartHandler
	Product *rest.ProductHandler
	User    *rest.UserHandler
}

func Routes(h Handlers) []Route {
	return []Route{
		{http.MethodPost, "/cart/add/", h.Cart.AddToCart, true},
		{http.MethodDelete, "/cart/remove/:product_id/", h.Cart.RemoveFromCart, true},
		{http.MethodGet, "/cart/", h.Cart.GetCart, true},
		{http.MethodPost, "/cart/checkout/", h.Cart.Checkout, true},
		{http.MethodGet, "/cart/history/", h.Cart.GetOrderHistory, true},

		{http.MethodPost, "/products/create/", h.Product.CreateProduct, true},
		{http.MethodPut, "/products/update/:id/", h.Product.UpdateProduct, true},
		{http.MethodDelete, "/products/delete/:id/", h.Product.DeleteProduct, true},
		{http.MethodGet, "/products/all/", h.Product.GetAllProducts, true},

		{http.MethodPost, "/users/create/", h.User.Register, false},
		{http.MethodGet, "/users/get-user/", h.User.GetUsers, false},
		{http.MethodDelete, "/users/delete", h.User.DeleteUser, false},
		{http.MethodPost, "/users/login", h.User.Login, false},
	}
}

func Register(e *echo.Echo, routes []Route, authRequired echo.MiddlewareFunc) {
	for _, r := range routes {
		if r.Auth {
			e.Add(r.Method, r.Path, r.Handler, authRequired)
			continue
		}
		e.Add(r.Method, r.Path, r.Handler)
	}
}

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// SetupOpsRoutes mounts /metrics and /healthz. Health fails when any check fails.
func SetupOpsRoutes(e *echo.Echo, checks map[string]Check) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("Health check failed", "dependency", name, "error", err)
				result[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			result[name] = "ok"
		}

		return c.JSON(status, result)
	})
}
