package rest

import (
	"net/http"
	"strconv"

	"onlineShop/domain"
	"onlineShop/internal/middleware"
	"onlineShop/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	AddToCartRequest struct {
		ProductID uint   `json:"product_id" validate:"required,gt=0"`
		Quantity  *int64 `json:"quantity" validate:"omitempty,gt=0"`
	}

	CheckoutRequest struct {
		PaymentMethod *string `json:"payment_method" validate:"required"`
	}

	ProductRequest struct {
		Name  string `json:"name" validate:"required"`
		Price *int64 `json:"price" validate:"required,gte=0"`
	}

	RegisterRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
		Email    string `json:"email" validate:"required,email"`
	}

	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
	}
)

type (
	OrderLineResponse struct {
		ID         uint   `json:"id"`
		ProductID  uint   `json:"product_id"`
		Quantity   int64  `json:"quantity"`
		Status     string `json:"status"`
		TotalPrice int64  `json:"total_price"`
	}

	UserResponse struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	}

	TokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
)

const defaultQuantity int64 = 1

func (r AddToCartRequest) quantity() int64 {
	if r.Quantity == nil {
		return defaultQuantity
	}
	return *r.Quantity
}

func toOrderLines(orders []domain.Order) []OrderLineResponse {
	out := make([]OrderLineResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderLine(o))
	}
	return out
}

func toOrderLine(o domain.Order) OrderLineResponse {
	return OrderLineResponse{
		ID:         o.ID,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		Status:     string(o.Status),
		TotalPrice: o.TotalPrice,
	}
}

// bindAndValidate decodes the body into req and runs its validator tags.
// Malformed bodies are 400, schema violations 422.
func bindAndValidate(c echo.Context, validate *validator.Validate, req interface{}) error {
	if err := c.Bind(req); err != nil {
		logger.Warn("Invalid request body", "path", c.Path(), "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		logger.Warn("Request validation failed", "path", c.Path(), "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	return nil
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid "+name)
	}
	return uint(id), nil
}

func queryInt64(c echo.Context, name string) (*int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid "+name)
	}
	return &v, nil
}

func currentUserID(c echo.Context) (uint, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		logger.Error("Failed to get user_id from context")
		return 0, domain.Unauthorized("Could not validate credentials")
	}
	return id, nil
}
