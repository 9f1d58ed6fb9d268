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

	// Conversation dispatch
	UseMemoryQueue bool
	WorkerCount    int
	AgentQueueURL  string

	// Persistence
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	StateTTL      time.Duration

	// Completion providers
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	BedrockModelID      string
	OpenAIAPIKey        string
	OpenAIModel         string
	GeminiAPIKey        string
	GeminiModelID       string
	LLMMaxRetries       int
	LLMRetryBaseDelay   time.Duration

	// Band identity
	BandName        string
	AgentName       string
	AgentEmail      string
	BandWebsite     string
	MinNoticeDays   int
	DefaultChannel  string

	// Email notifications
	EmailProvider      string
	EmailFromAddress   string
	EmailFromName      string
	AdminEmail         string
	SendGridAPIKey     string
	EmailWebhookSecret string

	// Rate limiting
	RateLimitPerSecond float64
	RateLimitBurst     int
	CORSOrigins        string

	// Follow-up cadence (acknowledged; no scheduler runs in this service)
	FollowUpDaysRosterMember int
	FollowUpDaysVenue        int
	MaxFollowUps             int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", true),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 2),
		AgentQueueURL:  getEnv("AGENT_QUEUE_URL", ""),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		StateTTL:      getEnvAsDuration("CONVERSATION_STATE_TTL", 30*24*time.Hour),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:       getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		LLMMaxRetries:       getEnvAsInt("LLM_MAX_RETRIES", 3),
		LLMRetryBaseDelay:   getEnvAsDuration("LLM_RETRY_BASE_DELAY", time.Second),

		BandName:       getEnv("BAND_NAME", "Sick Day with Ferris"),
		AgentName:      getEnv("AGENT_NAME", "Ferris"),
		AgentEmail:     getEnv("AGENT_EMAIL", "agent@sickdaywithferris.band"),
		BandWebsite:    getEnv("BAND_WEBSITE", "sickdaywithferris.band"),
		MinNoticeDays:  getEnvAsInt("MIN_NOTICE_DAYS", 14),
		DefaultChannel: getEnv("DEFAULT_CHANNEL", "email"),

		EmailProvider:      strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "ses"))),
		EmailFromAddress:   getEnv("EMAIL_FROM_ADDRESS", "bookings@sickdaywithferris.band"),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "Booking Agent"),
		AdminEmail:         getEnv("ADMIN_EMAIL", ""),
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		EmailWebhookSecret: getEnv("EMAIL_WEBHOOK_SECRET", ""),

		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 1),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
		CORSOrigins:        getEnv("CORS_ORIGINS", ""),

		FollowUpDaysRosterMember: getEnvAsInt("FOLLOW_UP_DAYS_ROSTER_MEMBER", 3),
		FollowUpDaysVenue:        getEnvAsInt("FOLLOW_UP_DAYS_VENUE", 5),
		MaxFollowUps:             getEnvAsInt("MAX_FOLLOW_UPS", 2),
	}
}

// CORSOriginsList parses the configured CORS origins into a slice.
func (c *Config) CORSOriginsList() []string {
	if strings.TrimSpace(c.CORSOrigins) == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
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
