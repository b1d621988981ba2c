package api

import (
	"errors"   // Sentinel error matching
	"net/http" // HTTP status codes
	"strconv"  // Path parameter parsing

	"ecofinds/internal/checkout" // Transactional purchase core
	"ecofinds/internal/domain"   // Importing domain models
	"ecofinds/internal/utils"    // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Request struct for checkout
type CheckoutRequest struct {
	Items           []checkout.Line `json:"items"`
	ShippingAddress string          `json:"shipping_address" binding:"required"`
	PaymentMethod   string          `json:"payment_method" binding:"required"`
	Notes           string          `json:"notes"`
}

// Request struct for a seller status change
type UpdateStatusRequest struct {
	Status domain.PurchaseStatus `json:"status" binding:"required"`
}

// Request struct for a buyer cancellation
type CancelRequest struct {
	Reason string `json:"reason"`
}

// checkoutError maps the sentinel errors of the purchase core to HTTP
// status codes; anything unrecognized is a 500 with a generic body.
func checkoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkout.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrInvalidOperation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// CheckoutHandler purchases the requested items. When no items are
// given the current cart contents are used.
func CheckoutHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		lines := req.Items
		if len(lines) == 0 {
			// Fall back to the cart
			var items []domain.CartItem
			if err := db.Where("user_id = ?", userID).Find(&items).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
				return
			}
			for _, item := range items {
				lines = append(lines, checkout.Line{ProductID: item.ProductID, Quantity: item.Quantity})
			}
		}
		receipts, err := checkout.Checkout(db, userID, lines, req.ShippingAddress, req.PaymentMethod, req.Notes)
		if err != nil {
			checkoutError(c, err)
			return
		}
		// Sold flags changed, catalog listings are stale
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, productCachePrefix)
		c.JSON(http.StatusCreated, gin.H{"message": "Checkout completed", "purchases": receipts})
	}
}

// PurchaseHistoryHandler returns the authenticated user's purchases
func PurchaseHistoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var purchases []domain.Purchase
		err := db.Where("buyer_id = ?", userID).
			Order("created_at desc").
			Preload("Product").Preload("Seller").
			Find(&purchases).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchases"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"purchases": purchases})
	}
}

// SalesHistoryHandler returns purchases where the authenticated user
// is the seller
func SalesHistoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var sales []domain.Purchase
		err := db.Where("seller_id = ?", userID).
			Order("created_at desc").
			Preload("Product").Preload("Buyer").
			Find(&sales).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sales"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sales": sales})
	}
}

// UpdatePurchaseStatusHandler lets the seller move a purchase through
// the fulfillment statuses
func UpdatePurchaseStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		purchaseID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase ID"})
			return
		}
		var req UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := checkout.SellerAdvanceStatus(db, uint(purchaseID), userID, req.Status); err != nil {
			checkoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Purchase status updated"})
	}
}

// CancelPurchaseHandler lets the buyer cancel a pending purchase and
// puts the product back on the market
func CancelPurchaseHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		purchaseID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase ID"})
			return
		}
		var req CancelRequest
		_ = c.ShouldBindJSON(&req) // Body is optional
		if err := checkout.BuyerCancel(db, uint(purchaseID), userID, req.Reason); err != nil {
			checkoutError(c, err)
			return
		}
		// The product is back on the market
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, productCachePrefix)
		c.JSON(http.StatusOK, gin.H{"message": "Purchase cancelled"})
	}
}
