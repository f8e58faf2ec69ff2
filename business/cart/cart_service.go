package cart

import (
	"context"
	"errors"
	"fmt"
	"math"

	"onlineShop/domain"
	"onlineShop/pkg/logger"
	"onlineShop/pkg/metrics"
)

// OrderRepository contract interface
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindInCart(ctx context.Context, userID, productID uint) (domain.Order, error)
	ListByStatus(ctx context.Context, userID uint, status domain.OrderStatus) ([]domain.Order, error)
	LockInCart(ctx context.Context, userID uint) ([]domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id uint) error
}

type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Product, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type CartService struct {
	orderRepo   OrderRepository
	productRepo ProductRepository
	userRepo    UserRepository
	tx          Transactor
}

func NewCartService(orderRepo OrderRepository, productRepo ProductRepository, userRepo UserRepository, tx Transactor) *CartService {
	return &CartService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		tx:          tx,
	}
}

// AddToCart merges quantity into the user's in_cart line for the product,
// creating the line on first add.
func (s *CartService) AddToCart(ctx context.Context, userID, productID uint, quantity int64) (domain.Order, error) {
	if quantity <= 0 {
		return domain.Order{}, domain.Validation("quantity must be greater than 0")
	}

	var line domain.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return notFoundAs(err, "Product not found.")
		}

		if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
			return notFoundAs(err, "User not found.")
		}

		added, err := lineTotal(quantity, product.Price)
		if err != nil {
			return err
		}

		existing, err := s.orderRepo.FindInCart(ctx, userID, productID)
		switch {
		case err == nil:
			if existing.Quantity, err = addAmounts(existing.Quantity, quantity); err != nil {
				return err
			}
			if existing.TotalPrice, err = addAmounts(existing.TotalPrice, added); err != nil {
				return err
			}
			if err := s.orderRepo.Update(ctx, &existing); err != nil {
				return err
			}
			line = existing
			return nil
		case errors.Is(err, domain.ErrNotFound):
			line = domain.Order{
				UserID:     userID,
				ProductID:  productID,
				Status:     domain.StatusInCart,
				Quantity:   quantity,
				TotalPrice: added,
			}
			return s.orderRepo.Create(ctx, &line)
		default:
			return err
		}
	})
	if err != nil {
		logger.Error("Failed to add product to cart", "user_id", userID, "product_id", productID, "error", err)
		return domain.Order{}, domain.Transient(err)
	}

	return line, nil
}

func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID uint) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		line, err := s.orderRepo.FindInCart(ctx, userID, productID)
		if err != nil {
			return notFoundAs(err, "Product not found in cart.")
		}

		return s.orderRepo.Delete(ctx, line.ID)
	})
	if err != nil {
		logger.Error("Failed to remove product from cart", "user_id", userID, "product_id", productID, "error", err)
		return domain.Transient(err)
	}

	return nil
}

func (s *CartService) GetCart(ctx context.Context, userID uint) ([]domain.Order, error) {
	lines, err := s.orderRepo.ListByStatus(ctx, userID, domain.StatusInCart)
	if err != nil {
		logger.Error("Failed to get cart", "user_id", userID, "error", err)
		return nil, err
	}

	return lines, nil
}

func (s *CartService) GetOrderHistory(ctx context.Context, userID uint) ([]domain.Order, error) {
	lines, err := s.orderRepo.ListByStatus(ctx, userID, domain.StatusPaid)
	if err != nil {
		logger.Error("Failed to get order history", "user_id", userID, "error", err)
		return nil, err
	}

	return lines, nil
}

// Checkout reprices every in_cart line at the product's current price and
// marks it paid. Either every line transitions or none does. No payment
// gateway is called; the method is recorded as given.
func (s *CartService) Checkout(ctx context.Context, userID uint, paymentMethod string) (domain.CheckoutSummary, error) {
	var summary domain.CheckoutSummary
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		lines, err := s.orderRepo.LockInCart(ctx, userID)
		if err != nil {
			return err
		}

		if len(lines) == 0 {
			return domain.Validation("No items in cart to check out.")
		}

		summary = domain.CheckoutSummary{Lines: make([]domain.Order, 0, len(lines))}
		for _, line := range lines {
			product, err := s.productRepo.FindByID(ctx, line.ProductID)
			if err != nil {
				return notFoundAs(err, fmt.Sprintf("Product %d in cart no longer exists.", line.ProductID))
			}

			if line.TotalPrice, err = lineTotal(line.Quantity, product.Price); err != nil {
				return err
			}
			if summary.TotalCost, err = addAmounts(summary.TotalCost, line.TotalPrice); err != nil {
				return err
			}

			line.Status = domain.StatusPaid
			line.PaymentMethod = paymentMethod
			if err := s.orderRepo.Update(ctx, &line); err != nil {
				return err
			}

			summary.Lines = append(summary.Lines, line)
		}

		return nil
	})
	if err != nil {
		logger.Error("Failed to checkout", "user_id", userID, "error", err)
		return domain.CheckoutSummary{}, domain.Transient(err)
	}

	metrics.CartCheckouts.Inc()
	metrics.CartCheckoutLines.Add(float64(len(summary.Lines)))
	logger.Info("Checkout completed", "user_id", userID, "lines", len(summary.Lines), "total_cost", summary.TotalCost, "payment_method", paymentMethod)

	return summary, nil
}

var errTotalTooLarge = domain.Validation("Order total is too large.")

// lineTotal is quantity × price, refused when it does not fit in an int64.
func lineTotal(quantity, price int64) (int64, error) {
	if quantity < 0 || price < 0 {
		return 0, domain.Validation("quantity and price cannot be negative")
	}
	if price != 0 && quantity > math.MaxInt64/price {
		return 0, errTotalTooLarge
	}
	return quantity * price, nil
}

func addAmounts(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, errTotalTooLarge
	}
	return a + b, nil
}

func notFoundAs(err error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound(msg)
	}
	return err
}
