package main

import (
	"flag" // Command-line flags

	"ecofinds/internal/config" // Custom import path (Config)
	"ecofinds/internal/db"     // Custom import path (Database)

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library

	"github.com/sirupsen/logrus" // Logging
)

// Main entry point for migration
func main() {
	demo := flag.Bool("demo", false, "seed demo users and listings after migrating")
	flag.Parse()

	cfg := config.LoadConfig() // Load configuration

	db.Migrate(cfg.DSN())

	if *demo {
		conn, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
		if err != nil {
			logrus.Fatalf("failed to connect database: %v", err)
		}
		db.SeedDemo(conn)
	}
}
