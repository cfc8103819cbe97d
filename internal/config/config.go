package config

import (
	"os"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DatabaseURL        string
	WebhookSource      string
	WebhookTimeout     time.Duration
	DispatchDelay      time.Duration
	DefaultWebhookURL  string
	CORSAllowedOrigins []string
	APIBaseURL         string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		WebhookSource:      getEnv("WEBHOOK_SOURCE", "Soco Nail Chatbot"),
		WebhookTimeout:     getEnvAsDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		DispatchDelay:      getEnvAsDuration("DISPATCH_DELAY", 100*time.Millisecond),
		DefaultWebhookURL:  getEnv("DEFAULT_WEBHOOK_URL", ""),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		APIBaseURL:         getEnv("LEAD_RELAY_API_URL", "http://localhost:8080"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable into trimmed values
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
