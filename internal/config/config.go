package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database (optional; empty disables session persistence)
	DatabaseURL string

	// Redis (optional; empty disables snapshots, events and gusts)
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Cloth defaults (presets and scene profiles override per session)
	ClothSegments   int
	ClothSize       float64
	SpringStiffness float64
	Gravity         float64

	// Simulation loop
	SimTickHz      int
	BroadcastEvery int

	// Session lifecycle
	MaxSessions             int
	SessionExpiryMinutes    int
	SessionRateLimitSeconds int

	// Ambient gust scheduler
	GustMinIntervalSeconds int
	GustMaxIntervalSeconds int

	// State snapshots
	SnapshotTTLSeconds int

	// Scene profiles
	ScenesDir string

	// Security
	JWTSecret         string
	AdminSessionHours int

	// Logging
	LogLevel string
	LogFile  string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Cloth defaults
		ClothSegments:   getEnvInt("CLOTH_SEGMENTS", 10),
		ClothSize:       getEnvFloat("CLOTH_SIZE", 1000),
		SpringStiffness: getEnvFloat("SPRING_STIFFNESS", 1.0),
		Gravity:         getEnvFloat("GRAVITY", 1.0),

		// Simulation loop
		SimTickHz:      getEnvInt("SIM_TICK_HZ", 60),
		BroadcastEvery: getEnvInt("BROADCAST_EVERY", 2),

		// Session lifecycle
		MaxSessions:             getEnvInt("MAX_SESSIONS", 256),
		SessionExpiryMinutes:    getEnvInt("SESSION_EXPIRY_MINUTES", 10),
		SessionRateLimitSeconds: getEnvInt("SESSION_RATE_LIMIT_SECONDS", 2),

		// Ambient gusts
		GustMinIntervalSeconds: getEnvInt("GUST_MIN_INTERVAL_SECONDS", 15),
		GustMaxIntervalSeconds: getEnvInt("GUST_MAX_INTERVAL_SECONDS", 45),

		// Snapshots
		SnapshotTTLSeconds: getEnvInt("SNAPSHOT_TTL_SECONDS", 3600),

		// Scenes
		ScenesDir: getEnv("SCENES_DIR", "scenes"),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		AdminSessionHours: getEnvInt("ADMIN_SESSION_HOURS", 4),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
