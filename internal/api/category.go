package api

import (
	"net/http" // HTTP status codes
	"time"     // Cache TTL

	"ecofinds/internal/domain" // Importing domain models
	"ecofinds/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

const categoryCacheTTL = 60 * time.Second

// ListCategoriesHandler returns every category, cached in Redis
func ListCategoriesHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cacheKey := "categories:all"

		var categories []domain.Category
		if hit, err := utils.GetCache(ctx, rdb, cacheKey, &categories); err == nil && hit {
			c.JSON(http.StatusOK, gin.H{"categories": categories, "cached": true})
			return
		}
		if err := db.Order("name asc").Find(&categories).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, categories, categoryCacheTTL)
		c.JSON(http.StatusOK, gin.H{"categories": categories})
	}
}

// GetCategoryHandler returns a single category by ID
func GetCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var category domain.Category
		if err := db.First(&category, "id = ?", c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": category})
	}
}

// CategoryProductsHandler returns the unsold listings in one category
func CategoryProductsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var category domain.Category
		if err := db.First(&category, "id = ?", c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		var products []domain.Product
		err := db.Where("category_id = ? AND is_sold = ?", category.ID, false).
			Order("created_at desc").
			Preload("Seller").
			Find(&products).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": category, "products": products})
	}
}
