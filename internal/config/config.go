package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	ServerPort  string
	Environment string

	// Database configuration
	DBURL  string
	DBName string

	// Redis configuration
	RedisAddress string

	// JWT configuration
	JWTSecret string

	// Registry behavior
	FailSilent          bool
	AuditLoggingEnabled bool

	// External collaborators
	ClassifierAddress string
	ValuationAddress  string
	ValuationAPIKey   string
}

// Global application configuration
var AppConfig Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Find .env file
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Try to find .env in parent directories
		envPath = filepath.Join("..", ".env")
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			envPath = filepath.Join("..", "..", ".env")
		}
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Println("Warning: JWT_SECRET not set, issued tokens will not survive a restart")
	}

	AppConfig = Config{
		ServerPort:          getEnv("PORT", "8080"),
		Environment:         getEnv("ENV", "development"),
		DBURL:               getEnv("DB_URL", "mongodb://localhost:27017"),
		DBName:              getEnv("DB_NAME", "discovery_tracker"),
		RedisAddress:        getEnv("REDIS_ADDRESS", "localhost:6379"),
		JWTSecret:           jwtSecret,
		FailSilent:          getEnv("FAIL_SILENT", "false") == "true",
		AuditLoggingEnabled: getEnv("AUDIT_LOGGING_ENABLED", "false") == "true",
		ClassifierAddress:   getEnv("CLASSIFIER_ADDRESS", "http://localhost:8090"),
		ValuationAddress:    getEnv("VALUATION_ADDRESS", "https://api.gateway.attomdata.com/propertyapi/v1.0.0"),
		ValuationAPIKey:     getEnv("VALUATION_API_KEY", ""),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
