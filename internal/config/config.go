package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAIReorderTimeout bounds the optional AI reordering call.
	DefaultAIReorderTimeout = 4 * time.Second
	// DefaultQuestDiversityThreshold is the shared-tag count at which a later pick is rejected.
	DefaultQuestDiversityThreshold = 2
	// DefaultQuestDailyCount is the number of quests generated per user per day.
	DefaultQuestDailyCount = 3
	// DefaultRateLimit is used when no rate limit is stored in the database.
	DefaultRateLimit = "5-S"
)

// Config holds application configuration
type Config struct {
	DatabaseURL             string
	ServerPort              string
	BaseURL                 string
	CORSAllowedOrigins      []string
	AIProvider              string
	OpenAIKey               string
	AIModel                 string
	AIBaseURL               string
	AIReorderTimeout        time.Duration
	QuestDiversityThreshold int
	QuestDailyCount         int
	EnableHSTS              bool
	OIDCIssuer              string
	OIDCJWKSURL             string
	RedisURL                string
	DefaultRateLimit        string
	RabbitMQURL             string
	RabbitMQPrefetch        int
	WorkerDebugMode         bool
	ServerDebugMode         bool
	OTELEnabled             bool
	OTELEndpoint            string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		BaseURL:                 getEnv("BASE_URL", "http://localhost:8080"),
		CORSAllowedOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AIProvider:              getEnv("AI_PROVIDER", "openai"),
		OpenAIKey:               getEnv("OPENAI_API_KEY", ""),
		AIModel:                 getEnv("AI_MODEL", ""),
		AIBaseURL:               getEnv("AI_BASE_URL", ""),
		AIReorderTimeout:        getEnvDuration("AI_REORDER_TIMEOUT", DefaultAIReorderTimeout),
		QuestDiversityThreshold: getEnvInt("QUEST_DIVERSITY_THRESHOLD", DefaultQuestDiversityThreshold),
		QuestDailyCount:         getEnvInt("QUEST_DAILY_COUNT", DefaultQuestDailyCount),
		EnableHSTS:              getEnvBool("ENABLE_HSTS", false),
		OIDCIssuer:              getEnv("OIDC_ISSUER", ""),
		OIDCJWKSURL:             getEnv("OIDC_JWKS_URL", ""),
		RedisURL:                getEnv("REDIS_URL", "redis://localhost:6379/0"),
		DefaultRateLimit:        getEnv("DEFAULT_RATE_LIMIT", DefaultRateLimit),
		RabbitMQURL:             getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:        getEnvInt("RABBITMQ_PREFETCH", 1),
		WorkerDebugMode:         getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:         getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:             getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:            getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.QuestDailyCount <= 0 {
		return nil, fmt.Errorf("QUEST_DAILY_COUNT must be positive, got %d", cfg.QuestDailyCount)
	}

	if cfg.QuestDiversityThreshold <= 0 {
		return nil, fmt.Errorf("QUEST_DIVERSITY_THRESHOLD must be positive, got %d", cfg.QuestDiversityThreshold)
	}

	if cfg.OIDCIssuer != "" && cfg.OIDCJWKSURL == "" {
		cfg.OIDCJWKSURL = strings.TrimSuffix(cfg.OIDCIssuer, "/") + "/.well-known/jwks.json"
	}

	return cfg, nil
}

// AISettings returns the provider settings for the AI registry.
func (c *Config) AISettings() map[string]string {
	return map[string]string{
		"api_key":  c.OpenAIKey,
		"base_url": c.AIBaseURL,
		"model":    c.AIModel,
		"timeout":  c.AIReorderTimeout.String(),
	}
}

// AIEnabled reports whether the optional AI reorder step has credentials.
func (c *Config) AIEnabled() bool {
	return c.OpenAIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// getEnvList parses a comma-separated value, dropping blanks and duplicates.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
