package postgres

import (
	"context"
	"errors"
	"fmt"

	"onlineShop/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrdersRepository struct {
	DB *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		DB: db,
	}
}

func (r *OrdersRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := conn(ctx, r.DB).Omit(clause.Associations).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order line: %w", err)
	}

	return nil
}

// FindInCart locks and returns the in_cart line for (userID, productID).
func (r *OrdersRepository) FindInCart(ctx context.Context, userID, productID uint) (domain.Order, error) {
	var order domain.Order
	err := conn(ctx, r.DB).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND product_id = ? AND status = ?", userID, productID, domain.StatusInCart).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.NotFound("order line not found")
		}
		return domain.Order{}, fmt.Errorf("failed to find cart line: %w", err)
	}

	return order, nil
}

func (r *OrdersRepository) ListByStatus(ctx context.Context, userID uint, status domain.OrderStatus) ([]domain.Order, error) {
	var orders []domain.Order
	err := conn(ctx, r.DB).
		Where("user_id = ? AND status = ?", userID, status).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}

	return orders, nil
}

// LockInCart is ListByStatus(in_cart) with row locks, used by checkout.
func (r *OrdersRepository) LockInCart(ctx context.Context, userID uint) ([]domain.Order, error) {
	var orders []domain.Order
	err := conn(ctx, r.DB).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status = ?", userID, domain.StatusInCart).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart lines: %w", err)
	}

	return orders, nil
}

func (r *OrdersRepository) Update(ctx context.Context, order *domain.Order) error {
	row := conn(ctx, r.DB).Model(&domain.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":         order.Status,
		"quantity":       order.Quantity,
		"total_price":    order.TotalPrice,
		"payment_method": order.PaymentMethod,
	})
	if err := row.Error; err != nil {
		return fmt.Errorf("failed to update order line: %w", err)
	}
	if row.RowsAffected == 0 {
		return domain.NotFound("order line not found")
	}

	return nil
}

func (r *OrdersRepository) Delete(ctx context.Context, id uint) error {
	row := conn(ctx, r.DB).Delete(&domain.Order{}, id)
	if err := row.Error; err != nil {
		return fmt.Errorf("failed to delete order line: %w", err)
	}
	if row.RowsAffected == 0 {
		return domain.NotFound("order line not found")
	}

	return nil
}

func (r *OrdersRepository) CountByProduct(ctx context.Context, productID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.DB).Model(&domain.Order{}).Where("product_id = ?", productID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count order lines: %w", err)
	}

	return count, nil
}
