package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DBUrl       string
	Environment string
	Port        string

	JWTSecret string
	JWTExpiry time.Duration

	// AllowedOrigins for CORS, comma-separated in ALLOWED_ORIGINS.
	AllowedOrigins []string

	// Geocoding
	GeocodeBaseURL      string
	GeocodeCountryCodes string

	// Email
	EmailProvider      string
	EmailFromAddress   string
	EmailFromName      string
	SESRegion          string
	SESAccessKeyID     string
	SESSecretAccessKey string
}

// Load loads configuration from environment variables.
// It attempts to load from .env file if not in production.
// DATABASE_URL and JWT_SECRET are required; there is no built-in
// fallback, a missing value fails startup.
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Load .env file if not in production. In production .env might not
	// exist and we rely on system environment variables.
	if env != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}

	cfg := &Config{
		Environment:         env,
		DBUrl:               os.Getenv("DATABASE_URL"),
		Port:                os.Getenv("PORT"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTExpiry:           24 * time.Hour,
		GeocodeBaseURL:      os.Getenv("GEOCODE_BASE_URL"),
		GeocodeCountryCodes: os.Getenv("GEOCODE_COUNTRY_CODES"),
		EmailProvider:       os.Getenv("EMAIL_PROVIDER"),
		EmailFromAddress:    os.Getenv("EMAIL_FROM_ADDRESS"),
		EmailFromName:       os.Getenv("EMAIL_FROM_NAME"),
		SESRegion:           os.Getenv("AWS_SES_REGION"),
		SESAccessKeyID:      os.Getenv("AWS_SES_ACCESS_KEY_ID"),
		SESSecretAccessKey:  os.Getenv("AWS_SES_SECRET_ACCESS_KEY"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DBUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if s := os.Getenv("JWT_EXPIRY"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRY: %w", err)
		}
		cfg.JWTExpiry = d
	}

	if s := os.Getenv("ALLOWED_ORIGINS"); s != "" {
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg, nil
}
