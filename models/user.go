package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the identity row owned by the external account system. The check-in
// flow only reads it and locks it to serialise a user's writes.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"size:64;not null;index" json:"username"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
