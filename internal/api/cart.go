package api

import (
	"errors"   // Error handling
	"net/http" // HTTP status codes

	"ecofinds/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
	"gorm.io/gorm"               // GORM ORM library
)

// Request struct for adding to the cart
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"omitempty,gt=0"`
}

// Request struct for changing a line quantity
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// cartLine is a cart item annotated with whether it can still be bought
type cartLine struct {
	domain.CartItem
	Available bool `json:"available"`
}

// loadCart fetches the user's cart lines with products preloaded.
// Lines whose product was soft deleted keep a zero-value Product.
func loadCart(db *gorm.DB, userID uint) ([]cartLine, error) {
	var items []domain.CartItem
	err := db.Where("user_id = ?", userID).
		Order("created_at asc").
		Preload("Product").Preload("Product.Seller").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	lines := make([]cartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, cartLine{
			CartItem:  item,
			Available: item.Product.ID != 0 && !item.Product.IsSold,
		})
	}
	return lines, nil
}

// GetCartHandler returns the user's cart with per-line availability
func GetCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		lines, err := loadCart(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
		total := 0.0
		count := 0
		for _, line := range lines {
			count += line.Quantity
			if line.Available {
				total += line.Product.Price * float64(line.Quantity)
			}
		}
		c.JSON(http.StatusOK, gin.H{"items": lines, "count": count, "total": total})
	}
}

// AddToCartHandler adds a product to the cart, incrementing the
// quantity when the product is already in it
func AddToCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req AddToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		var product domain.Product
		if err := db.First(&product, req.ProductID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if product.IsSold {
			c.JSON(http.StatusConflict, gin.H{"error": "Product is already sold"})
			return
		}
		if product.SellerID == userID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot add your own product to cart"})
			return
		}
		var item domain.CartItem
		err := db.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&item).Error
		switch {
		case err == nil:
			// Existing line, bump the quantity
			if err := db.Model(&item).Update("quantity", item.Quantity+req.Quantity).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
				return
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = domain.CartItem{UserID: userID, ProductID: req.ProductID, Quantity: req.Quantity}
			if err := db.Create(&item).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
				return
			}
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,
			"product_id": req.ProductID,
			"quantity":   item.Quantity,
		}).Info("Cart item added")
		c.JSON(http.StatusOK, gin.H{"message": "Added to cart", "item": item})
	}
}

// UpdateCartItemHandler changes a line quantity; zero or negative removes it
func UpdateCartItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req UpdateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var item domain.CartItem
		err := db.Where("user_id = ? AND product_id = ?", userID, c.Param("productId")).First(&item).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}
		if req.Quantity <= 0 {
			if err := db.Delete(&item).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "Removed from cart"})
			return
		}
		if err := db.Model(&item).Update("quantity", req.Quantity).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart updated", "item": item})
	}
}

// RemoveCartItemHandler removes a single line from the cart
func RemoveCartItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		res := db.Where("user_id = ? AND product_id = ?", userID, c.Param("productId")).Delete(&domain.CartItem{})
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Removed from cart"})
	}
}

// ClearCartHandler empties the user's cart
func ClearCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if err := db.Where("user_id = ?", userID).Delete(&domain.CartItem{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}

// CartCountHandler returns the number of units in the cart
func CartCountHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var count int64
		err := db.Model(&domain.CartItem{}).
			Where("user_id = ?", userID).
			Select("COALESCE(SUM(quantity), 0)").
			Scan(&count).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

// CartTotalHandler returns the order total over buyable lines only
func CartTotalHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		lines, err := loadCart(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
		total := 0.0
		for _, line := range lines {
			if line.Available {
				total += line.Product.Price * float64(line.Quantity)
			}
		}
		c.JSON(http.StatusOK, gin.H{"total": total})
	}
}

// PruneCartHandler drops lines whose product was sold or removed
func PruneCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		lines, err := loadCart(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
		var removed int64
		for _, line := range lines {
			if line.Available {
				continue
			}
			if err := db.Delete(&domain.CartItem{}, line.ID).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
				return
			}
			removed++
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart pruned", "removed": removed})
	}
}
