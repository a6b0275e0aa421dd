// migrate_gorm.go - Run this file to apply GORM migrations
// Usage: go run migrate_gorm.go

//go:build ignore

package main

import (
	"log"

	"github.com/novafs/lms-api/config"
	"github.com/novafs/lms-api/database"
)

func main() {
	log.Println("=== GORM Migration ===")

	// Load environment variables
	if err := config.LoadENV(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Initialize GORM connection
	store, err := database.StartGORM()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close()

	// Run migrations
	if err := store.Init(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Health check
	if err := store.HealthCheck(); err != nil {
		log.Fatal("Database health check failed:", err)
	}

	log.Println("All migrations completed successfully")
	log.Println("Tables:")
	for _, table := range []string{
		"users", "categories", "courses", "course_contents", "course_students",
		"transactions", "jwt_token_blacklist", "cron_job_logs",
	} {
		log.Println("  -", table)
	}
}
