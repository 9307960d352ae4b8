package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported classification providers.
const (
	LLMProviderGateway = "gateway"
	LLMProviderGemini  = "gemini"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	DB        DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	LLM       LLMConfig
	Kafka     KafkaConfig
	Tracing   TracingConfig
	Forecast  ForecastConfig
	Migration MigrationConfig
}

// DatabaseConfig contains PostgreSQL connection parameters. The credentials
// are service-level and bypass row-level security.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters. An empty Host disables the cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host is configured.
func (r RedisConfig) Enabled() bool { return r.Host != "" }

// AuthConfig describes how bearer tokens issued by the identity provider are verified.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Audience  string
}

// LLMConfig selects and configures the forecast classifier.
type LLMConfig struct {
	Provider     string
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration // 0 keeps the http.Client default
	GeminiAPIKey string
	GeminiModel  string
}

// Configured reports whether the selected provider has credentials.
func (l LLMConfig) Configured() bool {
	if l.Provider == LLMProviderGemini {
		return l.GeminiAPIKey != ""
	}
	return l.APIKey != ""
}

// KafkaConfig configures forecast event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers       []string
	ForecastTopic string
}

// TracingConfig configures the OTLP trace exporter. An empty endpoint disables export.
type TracingConfig struct {
	ServiceName  string
	OTLPEndpoint string
}

// ForecastConfig contains forecast run parameters.
type ForecastConfig struct {
	CacheTTL time.Duration
}

// MigrationConfig controls schema migration at startup.
type MigrationConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Missing .env is fine: production relies on real environment variables.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Identity provider
	cfg.Auth = AuthConfig{
		JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		Issuer:    getEnv("AUTH_JWT_ISSUER", ""),
		Audience:  getEnv("AUTH_JWT_AUDIENCE", "authenticated"),
	}

	// Classifier
	cfg.LLM = LLMConfig{
		Provider:     strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderGateway)),
		BaseURL:      getEnv("LLM_BASE_URL", "https://ai.gateway.lovable.dev/v1"),
		APIKey:       getEnv("LLM_API_KEY", ""),
		Model:        getEnv("LLM_MODEL", "google/gemini-3-flash-preview"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
	}

	// Events
	cfg.Kafka = KafkaConfig{
		Brokers:       splitList(getEnv("KAFKA_BROKERS", "")),
		ForecastTopic: getEnv("KAFKA_FORECAST_TOPIC", "inventory-forecast-generated"),
	}

	// Tracing
	cfg.Tracing = TracingConfig{
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "gtd-forecast"),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	// Migrations
	cfg.Migration = MigrationConfig{
		Enabled: getEnvBool("RUN_MIGRATIONS", true),
		Path:    getEnv("MIGRATIONS_PATH", "file://migrations"),
	}

	// Durations
	var err error
	if cfg.LLM.Timeout, err = parseDurationEnv("LLM_TIMEOUT", "0s"); err != nil {
		return nil, fmt.Errorf("invalid LLM_TIMEOUT: %w", err)
	}
	if cfg.Forecast.CacheTTL, err = parseDurationEnv("FORECAST_CACHE_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid FORECAST_CACHE_TTL: %w", err)
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET must be set to verify bearer tokens")
	}

	if cfg.LLM.Provider != LLMProviderGateway && cfg.LLM.Provider != LLMProviderGemini {
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q: use %q or %q", cfg.LLM.Provider, LLMProviderGateway, LLMProviderGemini)
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvBool returns the value of an environment variable as a bool or a default if empty/invalid.
func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
