package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Query parameter parsing
	"time"     // Cache TTL

	"ecofinds/internal/domain" // Importing domain models
	"ecofinds/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging
	"gorm.io/gorm"                 // GORM ORM library
)

const (
	productCacheTTL    = 60 * time.Second
	productCachePrefix = "products:"
	maxPageSize        = 50
)

// CreateProductRequest carries a new listing
type CreateProductRequest struct {
	Title         string   `json:"title" binding:"required,min=3,max=200"`
	Description   string   `json:"description" binding:"required,min=10"`
	Price         float64  `json:"price" binding:"required,gt=0"`
	OriginalPrice *float64 `json:"original_price" binding:"omitempty,gt=0"`
	CategoryID    uint     `json:"category_id" binding:"required"`
	Condition     string   `json:"condition" binding:"required"`
	ImageURLs     []string `json:"image_urls"`
	Tags          []string `json:"tags"`
	IsEcoFriendly *bool    `json:"is_eco_friendly"`
}

// UpdateProductRequest carries the mutable listing fields
type UpdateProductRequest struct {
	Title         *string  `json:"title" binding:"omitempty,min=3,max=200"`
	Description   *string  `json:"description" binding:"omitempty,min=10"`
	Price         *float64 `json:"price" binding:"omitempty,gt=0"`
	OriginalPrice *float64 `json:"original_price" binding:"omitempty,gt=0"`
	CategoryID    *uint    `json:"category_id"`
	Condition     *string  `json:"condition"`
	ImageURLs     []string `json:"image_urls"`
	Tags          []string `json:"tags"`
	IsEcoFriendly *bool    `json:"is_eco_friendly"`
}

// productFilters applies the catalog query parameters to a product query.
// Soft-deleted rows are excluded by GORM automatically.
func productFilters(c *gin.Context, query *gorm.DB) *gorm.DB {
	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if condition := c.Query("condition"); condition != "" {
		query = query.Where("condition = ?", condition)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		query = query.Where("price >= ?", minPrice)
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		query = query.Where("price <= ?", maxPrice)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR description LIKE ? OR tags LIKE ?", like, like, like)
	}
	if eco := c.Query("eco_friendly"); eco != "" {
		query = query.Where("is_eco_friendly = ?", eco == "true")
	}
	if sellerID := c.Query("seller_id"); sellerID != "" {
		query = query.Where("seller_id = ?", sellerID)
	}
	if c.Query("include_sold") != "true" {
		query = query.Where("is_sold = ?", false)
	}
	return query
}

// productOrder maps the sort_by / sort_order parameters to an ORDER BY
// clause, whitelisting the sortable columns
func productOrder(sortBy, sortOrder string) string {
	switch sortBy {
	case "price", "view_count", "title":
		// allowed as-is
	default:
		sortBy = "created_at"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	return sortBy + " " + sortOrder
}

// ListProductsHandler returns the catalog with filtering, search,
// sorting and pagination. Results are cached per query string.
func ListProductsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if limit < 1 || limit > maxPageSize {
			limit = 20
		}

		cacheKey := productCachePrefix + "list:" + c.Request.URL.RawQuery
		var cached gin.H
		if hit, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && hit {
			c.JSON(http.StatusOK, cached)
			return
		}

		query := productFilters(c, db.Model(&domain.Product{}))

		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}

		var products []domain.Product
		err := query.
			Order(productOrder(c.Query("sort_by"), c.Query("sort_order"))).
			Limit(limit).Offset((page - 1) * limit).
			Preload("Seller").Preload("Category").
			Find(&products).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}

		resp := gin.H{
			"products": products,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
				"total": total,
				"pages": (total + int64(limit) - 1) / int64(limit),
			},
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, productCacheTTL)
		c.JSON(http.StatusOK, resp)
	}
}

// FeaturedProductsHandler returns the most viewed unsold listings
func FeaturedProductsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cacheKey := productCachePrefix + "featured"

		var products []domain.Product
		if hit, err := utils.GetCache(ctx, rdb, cacheKey, &products); err == nil && hit {
			c.JSON(http.StatusOK, gin.H{"products": products, "cached": true})
			return
		}
		err := db.Where("is_sold = ?", false).
			Order("view_count desc").
			Limit(8).
			Preload("Seller").Preload("Category").
			Find(&products).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, products, productCacheTTL)
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

// GetProductHandler returns a single listing and increments its view count
func GetProductHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var product domain.Product
		err := db.Preload("Seller").Preload("Category").
			First(&product, "id = ?", c.Param("id")).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		// View counting is best effort; a lost increment is harmless
		_ = db.Model(&product).UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
		product.ViewCount++
		c.JSON(http.StatusOK, gin.H{"product": product})
	}
}

// UserProductsHandler returns a seller's listings, sold ones included
func UserProductsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var products []domain.Product
		err := db.Where("seller_id = ?", c.Param("userId")).
			Order("created_at desc").
			Preload("Category").
			Find(&products).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

// CreateProductHandler creates a new listing for the authenticated user
func CreateProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if !domain.IsValidCondition(req.Condition) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid condition"})
			return
		}
		var category domain.Category
		if err := db.First(&category, req.CategoryID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found"})
			return
		}
		product := domain.Product{
			SellerID:      userID,
			CategoryID:    req.CategoryID,
			Title:         req.Title,
			Description:   req.Description,
			Price:         req.Price,
			OriginalPrice: req.OriginalPrice,
			Condition:     req.Condition,
			ImageURLs:     req.ImageURLs,
			Tags:          req.Tags,
			IsEcoFriendly: true,
		}
		if req.IsEcoFriendly != nil {
			product.IsEcoFriendly = *req.IsEcoFriendly
		}
		if err := db.Create(&product).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, productCachePrefix)
		logrus.WithFields(logrus.Fields{
			"product_id": product.ID,
			"seller_id":  userID,
			"price":      product.Price,
		}).Info("Product created")
		c.JSON(http.StatusCreated, gin.H{"message": "Product created successfully", "product": product})
	}
}

// ownedProduct loads a product and checks the caller is its seller
func ownedProduct(c *gin.Context, db *gorm.DB) (*domain.Product, uint, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, 0, false
	}
	var product domain.Product
	if err := db.First(&product, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return nil, 0, false
	}
	if product.SellerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your product"})
		return nil, 0, false
	}
	return &product, userID, true
}

// UpdateProductHandler updates a listing owned by the authenticated user
func UpdateProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, userID, ok := ownedProduct(c, db)
		if !ok {
			return
		}
		var req UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		updates := map[string]any{}
		if req.Title != nil {
			updates["title"] = *req.Title
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.Price != nil {
			updates["price"] = *req.Price
		}
		if req.OriginalPrice != nil {
			updates["original_price"] = *req.OriginalPrice
		}
		if req.Condition != nil {
			if !domain.IsValidCondition(*req.Condition) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid condition"})
				return
			}
			updates["condition"] = *req.Condition
		}
		if req.CategoryID != nil {
			var category domain.Category
			if err := db.First(&category, *req.CategoryID).Error; err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found"})
				return
			}
			updates["category_id"] = *req.CategoryID
		}
		if req.IsEcoFriendly != nil {
			updates["is_eco_friendly"] = *req.IsEcoFriendly
		}
		if req.ImageURLs != nil {
			product.ImageURLs = req.ImageURLs
		}
		if req.Tags != nil {
			product.Tags = req.Tags
		}
		if len(updates) == 0 && req.ImageURLs == nil && req.Tags == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if len(updates) > 0 {
				if err := tx.Model(product).Updates(updates).Error; err != nil {
					return err
				}
			}
			if req.ImageURLs != nil || req.Tags != nil {
				if err := tx.Model(product).Select("ImageURLs", "Tags").Updates(product).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, productCachePrefix)
		logrus.WithFields(logrus.Fields{
			"product_id": product.ID,
			"seller_id":  userID,
		}).Info("Product updated")
		c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
	}
}

// DeleteProductHandler soft deletes a listing owned by the authenticated user
func DeleteProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, userID, ok := ownedProduct(c, db)
		if !ok {
			return
		}
		if err := db.Delete(product).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
			return
		}
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, productCachePrefix)
		logrus.WithFields(logrus.Fields{
			"product_id": product.ID,
			"seller_id":  userID,
		}).Info("Product deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}

// setSoldHandler flips the is_sold flag on an owned listing
func setSoldHandler(db *gorm.DB, rdb *redis.Client, sold bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, userID, ok := ownedProduct(c, db)
		if !ok {
			return
		}
		if product.IsSold == sold {
			c.JSON(http.StatusConflict, gin.H{"error": "Product is already in that state"})
			return
		}
		if err := db.Model(product).Update("is_sold", sold).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, productCachePrefix)
		logrus.WithFields(logrus.Fields{
			"product_id": product.ID,
			"seller_id":  userID,
			"is_sold":    sold,
		}).Info("Product availability changed")
		c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
	}
}

// MarkSoldHandler marks an owned listing as sold outside of checkout
func MarkSoldHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return setSoldHandler(db, rdb, true)
}

// MarkAvailableHandler relists an owned listing
func MarkAvailableHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return setSoldHandler(db, rdb, false)
}
