// Package config reads server settings from the environment. A .env
// file, when present, is loaded first.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	Env       string // "development" | "production"
	StaticDir string
}

func Load() Config {
	// Missing .env is fine; real deployments set the environment.
	_ = godotenv.Load()

	return Config{
		Port:      getenv("PORT", "8080"),
		Env:       getenv("APP_ENV", "production"),
		StaticDir: getenv("STATIC_DIR", "./public"),
	}
}

func (c Config) Development() bool { return c.Env == "development" }

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
