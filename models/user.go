package models

import (
	"gorm.io/gorm"
)

// User represents a customer or an administrator. Only the fields the order
// engine and the notifiers need are mapped here.
type User struct {
	gorm.Model
	Username  string `gorm:"uniqueIndex;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string `json:"first_name"`
	IsBlocked bool   `json:"is_blocked"`
	IsAdmin   bool   `json:"is_admin" gorm:"default:false"`
	Wallet    Wallet `json:"wallet,omitempty" gorm:"foreignKey:UserID"`
}
