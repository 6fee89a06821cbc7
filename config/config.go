// Package config loads service settings from the environment, with .env
// support for local development.
package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// Config is the service configuration.
type Config struct {
	Port              string
	MongoURI          string
	MongoDB           string
	JWTSecret         string
	AdminPasswordHash string
	GinMode           string
	AllowOrigins      string
}

// Load reads the environment, after loading a .env file when present.
// JWT_SECRET is mandatory; everything else has a development default.
func Load() (Config, error) {
	// Missing .env is fine in deployed environments.
	_ = godotenv.Load()

	cfg := Config{
		Port:              getenv("PORT", "8080"),
		MongoURI:          getenv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:           getenv("MONGODB_DB", "bizblah"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		GinMode:           os.Getenv("GIN_MODE"),
		AllowOrigins:      getenv("ALLOW_ORIGINS", "http://localhost:3000"),
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET must be set")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
