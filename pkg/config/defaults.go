// Package config provides centralized default values for the activity tracker
package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err != nil {
			// .env file is optional
			return
		}
		log.Println("Loading configuration overrides from .env file...")
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database Configuration
	DBPath           string
	DatabaseURL      string
	DatabaseToken    string
	ReadBusyTimeout  time.Duration
	ReadRetries      int
	DBMaxOpenConns   int
	DBMaxIdleConns   int
	DBConnMaxMinutes int

	// Tracker Configuration
	ScanInterval       time.Duration
	SnapshotQueueDepth int
	RecentSessionsKept int

	// Sessionization Configuration
	SessionGap      time.Duration
	FreshnessWindow time.Duration

	// Cache Configuration
	ActivityCacheTTL time.Duration

	// Auth Configuration
	JWTSecret     string
	AdminPassword string
	TokenLifetime time.Duration

	// Observability Configuration
	LogLevel           string
	LogDirectory       string
	LogToFile          bool
	LogToConsole       bool
	LogJSONFormat      bool
	SlowQueryThreshold time.Duration
)

// Initialize loads all configuration values from the environment.
func Initialize() {
	loadEnvFile()

	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	DBPath = getEnvString("DB_PATH", "facebook_tracking.db")
	DatabaseURL = getEnvString("TRACKER_DATABASE_URL", "")
	DatabaseToken = getEnvString("TRACKER_DATABASE_TOKEN", "")
	ReadBusyTimeout = getEnvDuration("READ_BUSY_TIMEOUT", 2*time.Second)
	ReadRetries = getEnvInt("READ_RETRIES", 3)
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)

	ScanInterval = getEnvDuration("SCAN_INTERVAL", 60*time.Second)
	SnapshotQueueDepth = getEnvInt("SNAPSHOT_QUEUE_DEPTH", 16)
	RecentSessionsKept = getEnvInt("RECENT_SESSIONS_KEPT", 100)

	SessionGap = getEnvDuration("SESSION_GAP", 15*time.Minute)
	FreshnessWindow = getEnvDuration("FRESHNESS_WINDOW", 15*time.Minute)

	ActivityCacheTTL = getEnvDuration("ACTIVITY_CACHE_TTL", 10*time.Second)

	JWTSecret = getEnvString("JWT_SECRET", "")
	AdminPassword = getEnvString("ADMIN_PASSWORD", "")
	TokenLifetime = getEnvDuration("TOKEN_LIFETIME", 30*24*time.Hour)

	LogLevel = getEnvString("LOG_LEVEL", "INFO")
	LogDirectory = getEnvString("LOG_DIRECTORY", "logs")
	LogToFile = getEnvBool("LOG_TO_FILE", false)
	LogToConsole = getEnvBool("LOG_TO_CONSOLE", true)
	LogJSONFormat = getEnvBool("LOG_JSON_FORMAT", false)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 100*time.Millisecond)
}
