package database

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/novafs/lms-api/config"
	"github.com/novafs/lms-api/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage defines the interface the HTTP layer needs from the database
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error

	GetDB() *gorm.DB
}

type GORMStore struct {
	db *gorm.DB
}

// StartGORM loads the environment and opens a GORM connection to PostgreSQL
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}
	return Open(getEnv)
}

// DSN builds the PostgreSQL data source name from the environment
func DSN(env *config.EnviornmentVariable) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		env.DB_HOST,
		env.DB_USER_NAME,
		env.DB_PASSWORD,
		env.DB_NAME,
		env.DB_PORT,
		env.DB_SSL_MODE,
	)
}

// Open connects to PostgreSQL with the given environment
func Open(env *config.EnviornmentVariable) (*GORMStore, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if env.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(DSN(env)), &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
		// Surface unique violations as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		log.Errorw("Unable to connect to PostgreSQL with GORM", "error", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("Successfully connected to PostgreSQL Database with GORM.")

	return &GORMStore{db: db}, nil
}

// Models lists every table owned by the service, in migration order
func Models() []interface{} {
	return []interface{}{
		// Accounts
		&model.User{},

		// Catalogue
		&model.Category{},
		&model.Course{},
		&model.CourseContent{},
		&model.CourseStudent{},

		// Payments
		&model.Transaction{},

		// Token blacklist
		&model.JWTTokenBlacklist{},

		// Scheduled job logs
		&model.CronJobLog{},
	}
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	log.Info("Running GORM AutoMigrate for all models...")

	if err := s.db.AutoMigrate(Models()...); err != nil {
		log.Errorw("Error running AutoMigrate", "error", err)
		return err
	}

	log.Info("GORM AutoMigrate completed successfully!")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Info("Closing GORM PostgreSQL connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for services and handlers
func (s *GORMStore) GetDB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
