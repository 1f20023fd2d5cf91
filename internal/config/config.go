package config

import (
	"fmt"
	"os"
	"strings"
)

// Config is the full environment-driven configuration. There are no mutable
// process-wide settings; everything is loaded once and passed into
// constructors.
type Config struct {
	AppAddr string
	GinMode string

	DatabaseURL string

	APIKey      string
	AdminAPIKey string
	JWTSecret   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	DefaultBuildingID string
	DefaultUserID     string
}

func get(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func required(name string) (string, error) {
	value := get(name)
	if value == "" {
		return "", fmt.Errorf("missing required environment variable: %s", name)
	}
	return value, nil
}

// Load reads configuration from the environment. DATABASE_URL and both API
// keys are required; everything else has a default or is optional.
func Load() (Config, error) {
	var cfg Config

	appAddr := get("APP_ADDR")
	if appAddr == "" {
		if port := get("PORT"); port != "" {
			appAddr = ":" + port
		} else {
			appAddr = ":8080"
		}
	}
	cfg.AppAddr = appAddr
	cfg.GinMode = get("GIN_MODE")

	var err error
	if cfg.DatabaseURL, err = required("DATABASE_URL"); err != nil {
		return Config{}, err
	}
	if cfg.APIKey, err = required("BOOKING_API_KEY"); err != nil {
		return Config{}, err
	}
	if cfg.AdminAPIKey, err = required("ADMIN_API_KEY"); err != nil {
		return Config{}, err
	}

	cfg.JWTSecret = get("JWT_HMAC_SECRET")

	cfg.GoogleClientID = get("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = get("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURL = get("GOOGLE_REDIRECT_URL")

	cfg.DefaultBuildingID = get("BOOKING_DEFAULT_BUILDING_ID")
	cfg.DefaultUserID = get("BOOKING_DEFAULT_USER_ID")

	return cfg, nil
}
