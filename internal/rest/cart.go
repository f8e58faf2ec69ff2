package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"onlineShop/domain"
	jsonres "onlineShop/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type CartService interface {
	AddToCart(ctx context.Context, userID, productID uint, quantity int64) (domain.Order, error)
	RemoveFromCart(ctx context.Context, userID, productID uint) error
	GetCart(ctx context.Context, userID uint) ([]domain.Order, error)
	Checkout(ctx context.Context, userID uint, paymentMethod string) (domain.CheckoutSummary, error)
	GetOrderHistory(ctx context.Context, userID uint) ([]domain.Order, error)
}

type CartHandler struct {
	cartService CartService
	validate    *validator.Validate
	timeout     time.Duration
}

func NewCartHandler(cartService CartService, validate *validator.Validate, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validate:    validate,
		timeout:     timeout,
	}
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req AddToCartRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	line, err := h.cartService.AddToCart(ctx, userID, req.ProductID, req.quantity())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toOrderLine(line))
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	productID, err := pathID(c, "product_id")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.cartService.RemoveFromCart(ctx, userID, productID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.Message("Product removed from cart."))
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	lines, err := h.cartService.GetCart(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toOrderLines(lines))
}

func (h *CartHandler) Checkout(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CheckoutRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	summary, err := h.cartService.Checkout(ctx, userID, *req.PaymentMethod)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.Message(fmt.Sprintf("Payment successful. Total cost: %d", summary.TotalCost)))
}

func (h *CartHandler) GetOrderHistory(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	lines, err := h.cartService.GetOrderHistory(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toOrderLines(lines))
}
