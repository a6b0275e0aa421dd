package database

import (
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/utils/auth"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultCategories are created on first seed
var DefaultCategories = []string{
	"Programming",
	"Design",
	"Marketing",
	"Business",
	"Data Science",
}

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Info("Starting database seeding...")

	if err := s.SeedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	if err := s.SeedDemoManager(); err != nil {
		return fmt.Errorf("failed to seed demo manager: %w", err)
	}

	log.Info("Database seeding completed successfully!")
	return nil
}

// SeedCategories inserts the default categories, skipping existing names
func (s *Seeder) SeedCategories() error {
	categories := make([]model.Category, 0, len(DefaultCategories))
	for _, name := range DefaultCategories {
		categories = append(categories, model.Category{Name: name})
	}

	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&categories)
	if result.Error != nil {
		return result.Error
	}

	log.Infow("Seeded categories", "created", result.RowsAffected)
	return nil
}

// SeedDemoManager creates a manager whose sign-up payment has already
// settled, so it can sign in without going through the gateway.
// Skipped unless DEMO_MANAGER_EMAIL and DEMO_MANAGER_PASSWORD are set.
func (s *Seeder) SeedDemoManager() error {
	email := os.Getenv("DEMO_MANAGER_EMAIL")
	password := os.Getenv("DEMO_MANAGER_PASSWORD")

	if email == "" || password == "" {
		log.Warn("DEMO_MANAGER_EMAIL and DEMO_MANAGER_PASSWORD not set, skipping demo manager creation")
		return nil
	}

	var count int64
	if err := s.db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Infow("Demo manager already exists, skipping", "email", email)
		return nil
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		manager := model.User{
			Name:         "Demo Manager",
			Email:        email,
			Photo:        model.DefaultPhoto,
			PasswordHash: passwordHash,
			Role:         model.RoleManager,
		}
		if err := tx.Create(&manager).Error; err != nil {
			return err
		}

		transaction := model.Transaction{
			ID:            uuid.NewString(),
			UserID:        manager.ID,
			Price:         model.SignUpPrice,
			Status:        model.TransactionSuccess,
			GatewayStatus: "seed",
		}
		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}

		log.Infow("Created demo manager", "email", manager.Email)
		return nil
	})
}

// RunSeeds is a convenience function to run all seeds
func RunSeeds(db *gorm.DB) error {
	seeder := NewSeeder(db)
	return seeder.SeedAll()
}
