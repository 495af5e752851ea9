package utils

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadEnvOnce sync.Once

// LoadEnv reads a .env file from the working directory, if present.
// Variables already set in the environment win.
func LoadEnv() {
	loadEnvOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Printf("[config] .env not loaded: %v", err)
		}
	})
}

// TrendsConfig holds the provider request parameters.
type TrendsConfig struct {
	BaseURL  string
	HL       string
	TZ       int
	Geo      string
	Category int
	Property string
	Timeout  time.Duration
}

func LoadTrendsConfig() TrendsConfig {
	LoadEnv()
	return TrendsConfig{
		BaseURL:  strings.TrimRight(envOr("TRENDS_BASE_URL", "https://trends.google.com"), "/"),
		HL:       envOr("TRENDS_HL", "en-US"),
		TZ:       envInt("TRENDS_TZ", 0),
		Geo:      os.Getenv("TRENDS_GEO"),
		Category: envInt("TRENDS_CATEGORY", 0),
		Property: os.Getenv("TRENDS_PROPERTY"),
		Timeout:  time.Duration(envInt("TRENDS_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	LoadEnv()

	// dev default (change for production)
	secret := envOr("TRENDS_JWT_SECRET", "dev-secret-change-me")
	issuer := envOr("TRENDS_JWT_ISSUER", "trendshub")

	hours := envInt("TRENDS_JWT_TTL_HOURS", 24)
	if hours <= 0 {
		hours = 24
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: time.Duration(hours) * time.Hour,
	}
}

type ServerConfig struct {
	Addr       string
	EventsAddr string
}

func LoadServerConfig() ServerConfig {
	LoadEnv()
	return ServerConfig{
		Addr:       envOr("TRENDS_API_ADDR", ":8080"),
		EventsAddr: envOr("TRENDS_EVENTS_ADDR", ":7070"),
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt falls back to def when the variable is unset or not a number.
func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] %s=%q is not an integer, using %d", key, v, def)
		return def
	}
	return n
}
