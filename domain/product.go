package domain

import (
	"time"
)

// CREATE TABLE public.products (
//     id          BIGSERIAL PRIMARY KEY,
//     name        TEXT NOT NULL,
//     price       BIGINT NOT NULL,
//     created_at  TIMESTAMPTZ DEFAULT NOW(),
//     updated_at  TIMESTAMPTZ DEFAULT NOW()
// );

type Product struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;type:text;not null" json:"name"`
	Price     int64     `gorm:"column:price;not null" json:"price"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// ProductSummary is the listing shape, also the cached payload.
type ProductSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

func (p Product) Summary() ProductSummary {
	return ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price}
}

// ProductFilter selects a listing page. Price bounds only apply when both are set.
type ProductFilter struct {
	Limit     int
	FromPrice *int64
	ToPrice   *int64
}

func (f ProductFilter) HasPriceRange() bool {
	return f.FromPrice != nil && f.ToPrice != nil
}
