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

type ProductService interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductSummary, error)
	CreateProduct(ctx context.Context, name string, price int64) (domain.Product, error)
	UpdateProduct(ctx context.Context, id uint, name string, price int64) error
	DeleteProduct(ctx context.Context, id uint) error
}

type ProductHandler struct {
	productService ProductService
	validate       *validator.Validate
	timeout        time.Duration
}

func NewProductHandler(productService ProductService, validate *validator.Validate, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validate:       validate,
		timeout:        timeout,
	}
}

// GetAllProducts accepts optional limit, from_price and to_price query parameters.
func (h *ProductHandler) GetAllProducts(c echo.Context) error {
	var filter domain.ProductFilter

	limit, err := queryInt64(c, "limit")
	if err != nil {
		return err
	}
	if limit != nil {
		filter.Limit = int(*limit)
	}

	if filter.FromPrice, err = queryInt64(c, "from_price"); err != nil {
		return err
	}
	if filter.ToPrice, err = queryInt64(c, "to_price"); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	products, err := h.productService.ListProducts(ctx, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req ProductRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	product, err := h.productService.CreateProduct(ctx, req.Name, *req.Price)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.Message(fmt.Sprintf("Product %s created", product.Name)))
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ProductRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.productService.UpdateProduct(ctx, id, req.Name, *req.Price); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.Message(fmt.Sprintf("Product %d updated", id)))
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.productService.DeleteProduct(ctx, id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.Message(fmt.Sprintf("Product %d deleted", id)))
}
