package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Product is a menu item. Stock is adjusted atomically by the inventory layer.
type Product struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Stock       int            `json:"stock"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeSave hook to ensure name is always in proper format
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.Name = strings.TrimSpace(p.Name)
	return nil
}
