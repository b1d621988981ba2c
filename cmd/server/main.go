package main

import (
	"context"                      // context package is needed for Redis operations
	"log"                          // log package is needed for logging
	"ecofinds/internal/api"        // Custom package for API handlers
	"ecofinds/internal/config"     // Custom package for configuration
	"ecofinds/internal/middleware" // Custom package for middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Auth routes
	r.POST("/api/auth/register", api.RegisterHandler(db, cfg.JWTSecret)) // Registration endpoint
	r.POST("/api/auth/login", api.LoginHandler(db, cfg.JWTSecret))       // Login endpoint

	// Public catalog routes
	r.GET("/api/products", api.ListProductsHandler(db, redisClient))             // Catalog listing endpoint
	r.GET("/api/products/featured", api.FeaturedProductsHandler(db, redisClient)) // Featured listing endpoint
	r.GET("/api/products/user/:userId", api.UserProductsHandler(db))             // Seller listings endpoint
	r.GET("/api/products/:id", api.GetProductHandler(db))                        // Product detail endpoint
	r.GET("/api/categories", api.ListCategoriesHandler(db, redisClient))         // Category list endpoint
	r.GET("/api/categories/:id", api.GetCategoryHandler(db))                     // Category detail endpoint
	r.GET("/api/categories/:id/products", api.CategoryProductsHandler(db))       // Category products endpoint

	// Authenticated routes (protected by JWT)
	auth := r.Group("/api")
	auth.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	auth.GET("/auth/me", api.MeHandler(db))                 // Profile read endpoint
	auth.PUT("/auth/profile", api.UpdateProfileHandler(db)) // Profile update endpoint

	auth.POST("/products", api.CreateProductHandler(db, redisClient))              // Create listing endpoint
	auth.PUT("/products/:id", api.UpdateProductHandler(db, redisClient))           // Update listing endpoint
	auth.DELETE("/products/:id", api.DeleteProductHandler(db, redisClient))        // Delete listing endpoint
	auth.PATCH("/products/:id/sold", api.MarkSoldHandler(db, redisClient))         // Delist endpoint
	auth.PATCH("/products/:id/available", api.MarkAvailableHandler(db, redisClient)) // Relist endpoint

	auth.GET("/cart", api.GetCartHandler(db))                      // Cart contents endpoint
	auth.POST("/cart", api.AddToCartHandler(db))                   // Add to cart endpoint
	auth.GET("/cart/count", api.CartCountHandler(db))              // Cart count endpoint
	auth.GET("/cart/total", api.CartTotalHandler(db))              // Cart total endpoint
	auth.DELETE("/cart/invalid", api.PruneCartHandler(db))         // Prune invalid lines endpoint
	auth.PUT("/cart/:productId", api.UpdateCartItemHandler(db))    // Change quantity endpoint
	auth.DELETE("/cart/:productId", api.RemoveCartItemHandler(db)) // Remove line endpoint
	auth.DELETE("/cart", api.ClearCartHandler(db))                 // Clear cart endpoint

	auth.POST("/purchases", api.CheckoutHandler(db, redisClient))           // Checkout endpoint
	auth.GET("/purchases", api.PurchaseHistoryHandler(db))                  // Purchase history endpoint
	auth.GET("/purchases/sales", api.SalesHistoryHandler(db))               // Sales history endpoint
	auth.PATCH("/purchases/:id/status", api.UpdatePurchaseStatusHandler(db)) // Seller status endpoint
	auth.POST("/purchases/:id/cancel", api.CancelPurchaseHandler(db, redisClient)) // Buyer cancel endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
