package domain

import (
	"time"

	"gorm.io/gorm"
)

// User Model
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`                    // Primary key
	Username     string         `gorm:"unique;not null;size:50" json:"username"` // Unique username
	Email        string         `gorm:"unique;not null;size:100" json:"email"`   // Unique email
	PasswordHash string         `gorm:"not null" json:"-"`                       // Hashed password, never serialized
	FirstName    string         `gorm:"size:100" json:"first_name"`
	LastName     string         `gorm:"size:100" json:"last_name"`
	Bio          string         `gorm:"size:500" json:"bio"`
	Location     string         `gorm:"size:100" json:"location"`
	AvatarURL    string         `json:"avatar_url"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"` // Soft delete marker
}
