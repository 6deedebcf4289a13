package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Gemini AI (study assistant; optional)
	GeminiAPIKey string

	// Progress engine
	TrackerDebounceSeconds    int
	TickGraceSeconds          int
	SessionIdleTimeoutSeconds int
	ReapIntervalSeconds       int
	FinalizeWorkers           int

	// Anti-abuse thresholds. Input signals (forbidden keys, context menu)
	// and focus signals (tab hidden, fullscreen exit) escalate separately.
	GuardInputWarn      int
	GuardInputTerminate int
	GuardFocusWarn      int
	GuardFocusTerminate int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		GeminiAPIKey: getEnvOrDefault("GEMINI_API_KEY", ""),

		TrackerDebounceSeconds:    getEnvAsInt("TRACKER_DEBOUNCE_SECONDS", 2),
		TickGraceSeconds:          getEnvAsInt("TICK_GRACE_SECONDS", 1),
		SessionIdleTimeoutSeconds: getEnvAsInt("SESSION_IDLE_TIMEOUT_SECONDS", 90),
		ReapIntervalSeconds:       getEnvAsInt("REAP_INTERVAL_SECONDS", 30),
		FinalizeWorkers:           getEnvAsInt("FINALIZE_WORKERS", 2),

		GuardInputWarn:      getEnvAsInt("GUARD_INPUT_WARN", 2),
		GuardInputTerminate: getEnvAsInt("GUARD_INPUT_TERMINATE", 3),
		GuardFocusWarn:      getEnvAsInt("GUARD_FOCUS_WARN", 1),
		GuardFocusTerminate: getEnvAsInt("GUARD_FOCUS_TERMINATE", 2),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvAsInt reads an integer setting, falling back to the default only
// when the variable is unset. A malformed value aborts startup; silently
// running with default engine or guard thresholds would mask the typo.
func getEnvAsInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		panic(fmt.Sprintf("environment variable %s must be an integer, got %q", key, val))
	}
	return n
}
