package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultHTTPTimeout = 30 * time.Second

// Config holds SDK configuration loaded from the environment.
type Config struct {
	// Backend
	BaseURL         string
	RealtimeURL     string
	RealtimeEnabled bool

	// HTTP
	HTTPTimeout time.Duration
	UserAgent   string

	// Session
	TokenCachePath string

	// Logging
	LogLevel string
	Env      string
}

// Load reads configuration from CLEANHUB_* environment variables,
// loading a .env file first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		BaseURL:         getEnv("CLEANHUB_BASE_URL", "http://localhost:8000/api"),
		RealtimeURL:     getEnv("CLEANHUB_REALTIME_URL", ""),
		RealtimeEnabled: parseBool(getEnv("CLEANHUB_REALTIME_ENABLED", "false"), false),

		HTTPTimeout: parseDuration(getEnv("CLEANHUB_HTTP_TIMEOUT", "30s")),
		UserAgent:   getEnv("CLEANHUB_USER_AGENT", "cleanhub-go/1.0"),

		TokenCachePath: getEnv("CLEANHUB_TOKEN_CACHE", defaultTokenCachePath()),

		LogLevel: getEnv("CLEANHUB_LOG_LEVEL", "info"),
		Env:      getEnv("CLEANHUB_ENV", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultHTTPTimeout
	}
	return d
}

func parseBool(s string, defaultValue bool) bool {
	value, err := strconv.ParseBool(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func defaultTokenCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".cleanhub-session.json"
	}
	return dir + string(os.PathSeparator) + "cleanhub" + string(os.PathSeparator) + "session.json"
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
