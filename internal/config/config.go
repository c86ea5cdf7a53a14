package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	GeminiAPIKey  string
	GeminiModelID string
	LLMTimeout    time.Duration

	DefaultLanguage  string
	MaxScanTurns     int
	MaxDeepTurns     int
	FatigueThreshold float64

	// InterviewTopicsJSON holds the topic plan as a JSON array; it is parsed
	// at startup, not here, so config stays free of domain types.
	InterviewTopicsJSON string

	ResearchGoal        string
	LeadTriggerStrategy string
	LeadFields          []string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		LLMTimeout:    getEnvAsDuration("LLM_TIMEOUT", 20*time.Second),

		DefaultLanguage:  getEnv("DEFAULT_LANGUAGE", "en"),
		MaxScanTurns:     getEnvAsInt("MAX_SCAN_TURNS", 8),
		MaxDeepTurns:     getEnvAsInt("MAX_DEEP_TURNS", 6),
		FatigueThreshold: getEnvAsFloat("FATIGUE_THRESHOLD", 0.8),

		InterviewTopicsJSON: getEnv("INTERVIEW_TOPICS_JSON", ""),

		ResearchGoal:        getEnv("RESEARCH_GOAL", ""),
		LeadTriggerStrategy: strings.ToLower(strings.TrimSpace(getEnv("LEAD_TRIGGER_STRATEGY", "on_exit"))),
		LeadFields:          getEnvAsList("LEAD_FIELDS", []string{"name", "email"}),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

// getEnvAsList splits a comma-separated environment variable, trimming
// whitespace and dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
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
