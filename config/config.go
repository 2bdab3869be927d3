/*
config.go - Environment-driven configuration

PURPOSE:
  Loads server configuration from the environment, with an optional .env
  file for local development. Every knob has a working default so the
  server runs with zero configuration.

VARIABLES:
  ADDR          Listen address (default ":8080")
  DB_PATH       SQLite database path (default "ledger.db", ":memory:" supported)
  LOG_LEVEL     zerolog level: trace|debug|info|warn|error (default "info")
  CORS_ORIGINS  Comma-separated allowed origins (default: allow all)
*/
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all server settings.
type Config struct {
	Addr        string
	DBPath      string
	LogLevel    string
	CORSOrigins []string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over .env entries.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:     getenv("ADDR", ":8080"),
		DBPath:   getenv("DB_PATH", "ledger.db"),
		LogLevel: getenv("LOG_LEVEL", "info"),
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
