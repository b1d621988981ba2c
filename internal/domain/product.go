package domain

import (
	"time"

	"gorm.io/gorm"
)

// Product conditions accepted on listing creation.
var ValidConditions = []string{"excellent", "good", "fair", "poor"}

// IsValidCondition reports whether c is one of the accepted product conditions.
func IsValidCondition(c string) bool {
	for _, v := range ValidConditions {
		if v == c {
			return true
		}
	}
	return false
}

// Product Model
type Product struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	SellerID      uint           `gorm:"index;not null" json:"seller_id"`   // Owning seller
	CategoryID    uint           `gorm:"index;not null" json:"category_id"` // Reference data
	Title         string         `gorm:"not null;size:255" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         float64        `gorm:"not null" json:"price"` // Non-negative, snapshot source for purchases
	OriginalPrice *float64       `json:"original_price"`        // Optional retail price for comparison
	Condition     string         `gorm:"size:20" json:"condition"`
	ImageURLs     []string       `gorm:"serializer:json" json:"image_urls"`
	Tags          []string       `gorm:"serializer:json" json:"tags"`
	IsEcoFriendly bool           `gorm:"default:true" json:"is_eco_friendly"`
	IsSold        bool           `gorm:"default:false;index" json:"is_sold"` // The contended inventory flag
	ViewCount     int            `gorm:"default:0" json:"view_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"` // Soft delete: null means active

	Seller   User     `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
