/**
 * @description
 * Configuration loader for the Book Trading Club backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - Fails fast if critical variables (Database URL, JWT secret) are missing.
 * - Email and Cloudinary credentials are optional; the related features degrade
 *   to no-ops when they are absent.
 */

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Email      EmailConfig
	Cloudinary CloudinaryConfig
	Jobs       JobsConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port   string
	Env    string // "development" or "production"
	AppURL string // public base URL used in email links
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// AuthConfig holds token settings for the dual auth paths
type AuthConfig struct {
	JWTSecret     string
	GoogleJWKSURL string // URL to fetch Google's JSON Web Key Set for ID-token validation
	GoogleIssuer  string
	GoogleAud     string // OAuth client ID the ID token must be issued for
}

// EmailConfig holds SMTP settings for best-effort notification emails
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// CloudinaryConfig holds image store credentials
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadFolder string
}

// JobsConfig holds settings for the background worker and admin job routes
type JobsConfig struct {
	Secret        string // shared secret guarding the admin job endpoints
	ResyncSpec    string // cron spec for the points reconciliation sweep
	CleanupSpec   string // cron spec for old-notification cleanup
	RetentionDays int    // notifications older than this are deleted
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:   getEnv("PORT", "8080"),
			Env:    getEnv("GO_ENV", "development"),
			AppURL: getEnv("APP_URL", "http://localhost:3000"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			GoogleJWKSURL: getEnv("GOOGLE_JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs"),
			GoogleIssuer:  getEnv("GOOGLE_ISSUER", "https://accounts.google.com"),
			GoogleAud:     getEnv("GOOGLE_CLIENT_ID", ""),
		},
		Email: EmailConfig{
			Host:     getEnv("EMAIL_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("EMAIL_PORT", 587),
			User:     getEnv("EMAIL_USER", ""),
			Password: getEnv("EMAIL_PASS", ""),
			From:     getEnv("EMAIL_FROM", getEnv("EMAIL_USER", "")),
		},
		Cloudinary: CloudinaryConfig{
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
			UploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "bookclub"),
		},
		Jobs: JobsConfig{
			Secret:        getEnv("JOB_SECRET", ""),
			ResyncSpec:    getEnv("POINTS_RESYNC_CRON", "0 */6 * * *"),
			CleanupSpec:   getEnv("NOTIFICATION_CLEANUP_CRON", "30 3 * * *"),
			RetentionDays: getEnvAsInt("NOTIFICATION_RETENTION_DAYS", 90),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Email.User == "" && cfg.Server.Env != "test" {
		fmt.Println("Warning: EMAIL_USER is missing. Outgoing emails will be skipped.")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
