package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the incentive service.
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Gemini configuration
	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout time.Duration
	GeminiRetries uint64

	// Reward configuration. Only Medium, High and Critical earn coins.
	BaseCoinsPerReport int
	MediumMultiplier   float64
	HighMultiplier     float64
	CriticalMultiplier float64

	// Twilio configuration
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	AdminPhoneNumber  string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "ecosmart"),

		// Gemini defaults
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiTimeout: time.Duration(getIntEnv("GEMINI_TIMEOUT_SEC", 30)) * time.Second,
		GeminiRetries: uint64(getIntEnv("GEMINI_MAX_RETRIES", 3)),

		// Reward defaults
		BaseCoinsPerReport: getIntEnv("BASE_COINS_PER_REPORT", 10),
		MediumMultiplier:   getFloatEnv("MEDIUM_SEVERITY_MULTIPLIER", 1.0),
		HighMultiplier:     getFloatEnv("HIGH_SEVERITY_MULTIPLIER", 1.5),
		CriticalMultiplier: getFloatEnv("CRITICAL_SEVERITY_MULTIPLIER", 2.0),

		// Twilio defaults (empty disables notifications)
		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		AdminPhoneNumber:  getEnv("ADMIN_PHONE_NUMBER", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
