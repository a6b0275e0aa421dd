package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// Public base URL of the frontend, used for payment callbacks
	APP_URL string
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// Midtrans Configuration
	MIDTRANS_URL              string
	MIDTRANS_SERVER_KEY       string
	MIDTRANS_AUTH_STRING      string
	MIDTRANS_VERIFY_SIGNATURE bool
	// Media storage: "spaces" (default) or "supabase"
	MEDIA_DRIVER           string
	DO_SPACES_ACCESS_KEY   string
	DO_SPACES_SECRET_KEY   string
	DO_SPACES_BUCKET       string
	DO_SPACES_REGION       string
	DO_SPACES_ENDPOINT     string
	DO_SPACES_CDN_ENDPOINT string
	SUPABASE_URL           string
	SUPABASE_KEY           string
	SUPABASE_BUCKET        string
	// HTTP
	ALLOWED_ORIGINS string
	CRON_ENABLED    bool
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	dbSSLMode := os.Getenv("DB_SSL_MODE")
	if dbSSLMode == "" {
		dbSSLMode = "disable"
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  dbSSLMode,
		PORT:         port,
		APP_URL:      getEnvOrDefault("APP_URL", "http://localhost:5173"),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getEnvOrDefault("JWT_ISSUER", "lms-api"),
		// Redis
		REDIS_URL: getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		// Midtrans
		MIDTRANS_URL:              getEnvOrDefault("MIDTRANS_URL", "https://app.sandbox.midtrans.com/snap/v1/transactions"),
		MIDTRANS_SERVER_KEY:       os.Getenv("MIDTRANS_SERVER_KEY"),
		MIDTRANS_AUTH_STRING:      os.Getenv("MIDTRANS_AUTH_STRING"),
		MIDTRANS_VERIFY_SIGNATURE: os.Getenv("MIDTRANS_VERIFY_SIGNATURE") == "true",
		// Media
		MEDIA_DRIVER:           getEnvOrDefault("MEDIA_DRIVER", "spaces"),
		DO_SPACES_ACCESS_KEY:   os.Getenv("DO_SPACES_ACCESS_KEY"),
		DO_SPACES_SECRET_KEY:   os.Getenv("DO_SPACES_SECRET_KEY"),
		DO_SPACES_BUCKET:       os.Getenv("DO_SPACES_BUCKET"),
		DO_SPACES_REGION:       os.Getenv("DO_SPACES_REGION"),
		DO_SPACES_ENDPOINT:     os.Getenv("DO_SPACES_ENDPOINT"),
		DO_SPACES_CDN_ENDPOINT: os.Getenv("DO_SPACES_CDN_ENDPOINT"),
		SUPABASE_URL:           os.Getenv("SUPABASE_URL"),
		SUPABASE_KEY:           os.Getenv("SUPABASE_KEY"),
		SUPABASE_BUCKET:        getEnvOrDefault("SUPABASE_BUCKET", "uploads"),
		// HTTP
		ALLOWED_ORIGINS: getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		CRON_ENABLED:    os.Getenv("CRON_ENABLED") != "false", // Default to enabled
	}

	return envVariables, nil
}

// IsProduction reports whether GO_ENV is production
func (e *EnviornmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
