package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseDriver         string
	DatabaseURL            string
	Port                   string
	GoEnv                  string
	JWTSecret              string
	JWTIssuer              string
	JWTAudience            string
	MailHost               string
	MailPort               int
	MailUsername           string
	MailPassword           string
	MailFrom               string
	MongoURI               string
	MongoDatabase          string
	MemcachedHost          string
	RabbitMQURL            string
	RabbitMQQueue          string
	AWSRegion              string
	AWSS3Bucket            string
	AWSAccessKeyID         string
	AWSSecretAccessKey     string
	UploadDir              string
	OpenLibraryURL         string
	CoversBaseURL          string
	CORSAllowedOrigins     []string
	StrictOrderTransitions bool
	LogLevel               string
}

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// In production environment variables are set directly
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	mailPort, err := strconv.Atoi(getEnv("MAIL_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("MAIL_PORT must be a number: %w", err)
	}

	config := &Config{
		DatabaseDriver:         strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		Port:                   getEnv("PORT", "8080"),
		GoEnv:                  getEnv("GO_ENV", "development"),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		JWTIssuer:              getEnv("JWT_ISSUER", "biblioteca-api"),
		JWTAudience:            getEnv("JWT_AUDIENCE", "biblioteca-client"),
		MailHost:               getEnv("MAIL_HOST", ""),
		MailPort:               mailPort,
		MailUsername:           getEnv("MAIL_USERNAME", ""),
		MailPassword:           getEnv("MAIL_PASSWORD", ""),
		MailFrom:               getEnv("MAIL_FROM", getEnv("MAIL_USERNAME", "")),
		MongoURI:               getEnv("MONGO_URI", ""),
		MongoDatabase:          getEnv("MONGO_DATABASE", "biblioteca"),
		MemcachedHost:          getEnv("MEMCACHED_HOST", ""),
		RabbitMQURL:            getEnv("RABBITMQ_URL", ""),
		RabbitMQQueue:          getEnv("RABBITMQ_QUEUE", "order_events"),
		AWSRegion:              getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:            getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:         getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		UploadDir:              getEnv("UPLOAD_DIR", "./uploads"),
		OpenLibraryURL:         getEnv("OPEN_LIBRARY_URL", "https://openlibrary.org"),
		CoversBaseURL:          getEnv("COVERS_BASE_URL", "https://covers.openlibrary.org"),
		CORSAllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		StrictOrderTransitions: getEnv("STRICT_ORDER_TRANSITIONS", "false") == "true",
		LogLevel:               getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DatabaseDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER %q is not supported (use postgres, mysql or sqlite)", c.DatabaseDriver)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// MailEnabled reports whether an SMTP relay is configured
func (c *Config) MailEnabled() bool {
	return c.MailHost != ""
}

// S3Enabled reports whether cover images should go to S3 instead of local disk
func (c *Config) S3Enabled() bool {
	return c.AWSS3Bucket != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
