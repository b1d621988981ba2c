package domain

import "time"

// PurchaseStatus is the closed purchase lifecycle enum.
type PurchaseStatus string

const (
	StatusPending   PurchaseStatus = "pending"
	StatusConfirmed PurchaseStatus = "confirmed"
	StatusShipped   PurchaseStatus = "shipped"
	StatusDelivered PurchaseStatus = "delivered" // Terminal
	StatusCancelled PurchaseStatus = "cancelled" // Terminal
)

// IsValidStatus reports whether s is a member of the closed enum.
func IsValidStatus(s PurchaseStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Purchase Model. Once created, buyer/seller/product/quantity/total
// are immutable; only Status and Notes may change.
type Purchase struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	OrderRef        string         `gorm:"uniqueIndex;size:36" json:"order_ref"` // Opaque external reference
	BuyerID         uint           `gorm:"index;not null" json:"buyer_id"`
	SellerID        uint           `gorm:"index;not null" json:"seller_id"`
	ProductID       uint           `gorm:"index;not null" json:"product_id"`
	Quantity        int            `gorm:"not null" json:"quantity"`
	TotalAmount     float64        `gorm:"not null" json:"total_amount"` // price * quantity at purchase time
	ShippingAddress string         `gorm:"not null;size:500" json:"shipping_address"`
	PaymentMethod   string         `gorm:"not null;size:50" json:"payment_method"`
	Status          PurchaseStatus `gorm:"size:20;default:'pending';index" json:"status"`
	Notes           string         `gorm:"size:500" json:"notes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	Buyer   User    `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Seller  User    `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}
