package domain

import "time"

type OrderStatus string

const (
	StatusInCart OrderStatus = "in_cart"
	StatusPaid   OrderStatus = "paid"
)

// Order is one cart or order-history line: a single product's quantity for a single user.
// At most one in_cart line exists per (user_id, product_id); paid lines are history.
type Order struct {
	ID            uint        `gorm:"primaryKey;autoIncrement"`
	UserID        uint        `gorm:"column:user_id;not null;index"`
	ProductID     uint        `gorm:"column:product_id;not null;index"`
	Status        OrderStatus `gorm:"column:status;type:varchar(16);not null;default:in_cart"`
	Quantity      int64       `gorm:"column:quantity;not null"`
	TotalPrice    int64       `gorm:"column:total_price;not null"`
	PaymentMethod string      `gorm:"column:payment_method;type:text"`
	CreatedAt     time.Time   `gorm:"column:created_at"`
	UpdatedAt     time.Time   `gorm:"column:updated_at"`

	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (Order) TableName() string {
	return "orders"
}

type CheckoutSummary struct {
	TotalCost int64
	Lines     []Order
}
