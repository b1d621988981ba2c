package db

import (
	"ecofinds/internal/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// defaultCategories mirrors the reference data the marketplace ships with.
var defaultCategories = []domain.Category{
	{Name: "Electronics", Description: "Phones, laptops, cameras and other tech", Icon: "laptop"},
	{Name: "Clothing", Description: "Second-hand fashion and accessories", Icon: "shirt"},
	{Name: "Furniture", Description: "Pre-loved furniture and home decor", Icon: "armchair"},
	{Name: "Books", Description: "Used books, magazines and comics", Icon: "book"},
	{Name: "Sports & Outdoors", Description: "Sporting goods and outdoor equipment", Icon: "bike"},
	{Name: "Toys & Games", Description: "Toys, board games and collectibles", Icon: "puzzle"},
	{Name: "Home & Garden", Description: "Kitchenware, tools and garden supplies", Icon: "flower"},
	{Name: "Other", Description: "Everything else", Icon: "box"},
}

// SeedCategories inserts the default categories if they do not exist yet.
func SeedCategories(db *gorm.DB) {
	for _, cat := range defaultCategories {
		var existing domain.Category
		if err := db.Where("name = ?", cat.Name).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&cat).Error; err != nil {
					logrus.Errorf("failed to seed category %s: %v", cat.Name, err)
				}
			}
		}
	}
	logrus.Info("Categories seeded.")
}

// SeedDemo creates a pair of demo users with a few listings each, for
// local development only.
func SeedDemo(db *gorm.DB) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		logrus.Fatalf("failed to hash demo password: %v", err)
	}

	users := []domain.User{
		{
			Username:  "eco_enthusiast",
			Email:     "sarah@example.com",
			FirstName: "Sarah",
			LastName:  "Johnson",
			Bio:       "Passionate about sustainable living and eco-friendly products.",
			Location:  "San Francisco, CA",
		},
		{
			Username:  "green_warrior",
			Email:     "mike@example.com",
			FirstName: "Mike",
			LastName:  "Chen",
			Bio:       "Environmental activist and second-hand goods enthusiast.",
			Location:  "Portland, OR",
		},
	}
	for i := range users {
		users[i].PasswordHash = string(hash)
		var existing domain.User
		if err := db.Where("email = ?", users[i].Email).First(&existing).Error; err == nil {
			users[i] = existing
			continue
		}
		if err := db.Create(&users[i]).Error; err != nil {
			logrus.Errorf("failed to seed user %s: %v", users[i].Username, err)
		}
	}

	var electronics domain.Category
	if err := db.Where("name = ?", "Electronics").First(&electronics).Error; err != nil {
		logrus.Error("category seed must run before demo seed")
		return
	}

	products := []domain.Product{
		{
			SellerID:    users[0].ID,
			CategoryID:  electronics.ID,
			Title:       "Refurbished MacBook Air 2020",
			Description: "Lightly used, battery replaced last year. Comes with original charger.",
			Price:       449.00,
			Condition:   "good",
			Tags:        []string{"laptop", "apple", "refurbished"},
		},
		{
			SellerID:    users[1].ID,
			CategoryID:  electronics.ID,
			Title:       "Vintage Polaroid Camera",
			Description: "Working condition, film not included.",
			Price:       65.00,
			Condition:   "fair",
			Tags:        []string{"camera", "vintage"},
		},
	}
	for _, p := range products {
		var existing domain.Product
		if err := db.Where("title = ? AND seller_id = ?", p.Title, p.SellerID).First(&existing).Error; err == nil {
			continue
		}
		if err := db.Create(&p).Error; err != nil {
			logrus.Errorf("failed to seed product %s: %v", p.Title, err)
		}
	}
	logrus.Info("Demo data seeded.")
}
