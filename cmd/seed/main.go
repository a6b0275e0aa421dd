package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/novafs/lms-api/config"
	"github.com/novafs/lms-api/database"
)

func main() {
	// Load environment variables
	if err := config.LoadENV(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Initialize database connection using GORM
	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("LMS API - Database Seeding")
	fmt.Println(separator)
	fmt.Println()

	if err := database.RunSeeds(store.GetDB()); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	fmt.Println()
	fmt.Println(separator)
	fmt.Println("Seeding completed successfully!")
	fmt.Println(separator)
	fmt.Println()
	fmt.Println("Demo manager created from DEMO_MANAGER_EMAIL and DEMO_MANAGER_PASSWORD environment variables.")
	fmt.Println("If not set, demo manager creation is skipped.")
	fmt.Println()
}
