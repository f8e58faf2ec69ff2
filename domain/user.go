package domain

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID             uint   `gorm:"primaryKey"`
	Username       string `gorm:"column:username;not null"`
	HashedPassword string `gorm:"column:hashed_password;not null"`
	Email          string `gorm:"column:email;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
