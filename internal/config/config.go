// Package config loads service configuration from the environment. A .env
// file in the working directory is honored for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServiceConfig holds the HTTP server settings.
type ServiceConfig struct {
	Principal       string
	HTTPPort        string
	ShutdownTimeout time.Duration
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel    string
	MetricsPort string
}

// DedupeConfig holds the duplicate-delivery gate settings.
type DedupeConfig struct {
	Capacity int
}

// RecordsConfig holds the record store settings.
type RecordsConfig struct {
	SQLitePath string
}

// CallContextConfig holds the caller-identity cache settings.
type CallContextConfig struct {
	TTL time.Duration
}

// KafkaConfig holds the retry queue settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// CollabConfig holds the automation-platform collaborator settings.
type CollabConfig struct {
	BaseURL string
}

// NotifyConfig holds the SMTP notification settings.
type NotifyConfig struct {
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	From           string
	AlertRecipient string
}

// OpenAIConfig holds the summarizer settings.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	Observability ObservabilityConfig
	Dedupe        DedupeConfig
	Records       RecordsConfig
	CallContext   CallContextConfig
	Kafka         KafkaConfig
	Collab        CollabConfig
	Notify        NotifyConfig
	OpenAI        OpenAIConfig
}

// Load reads configuration from the environment, applying defaults for
// anything unset. Invalid numeric or duration values fall back to defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Service: ServiceConfig{
			Principal:       envOrDefault("SERVICE_PRINCIPAL", "svc-voice-lead-pipeline"),
			HTTPPort:        envOrDefault("HTTP_PORT", "8080"),
			ShutdownTimeout: envOrDefaultDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		Dedupe: DedupeConfig{
			Capacity: envOrDefaultInt("DEDUPE_CAPACITY", 500),
		},
		Records: RecordsConfig{
			SQLitePath: envOrDefault("RECORDS_SQLITE_PATH", "call_records.db"),
		},
		CallContext: CallContextConfig{
			TTL: envOrDefaultDuration("CALL_CONTEXT_TTL", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: envOrDefaultList("KAFKA_BROKERS"),
			Topic:   envOrDefault("KAFKA_RETRY_TOPIC", "calls.completed.retry"),
			Enabled: envOrDefaultBool("KAFKA_ENABLED", false),
		},
		Collab: CollabConfig{
			BaseURL: os.Getenv("COLLAB_BASE_URL"),
		},
		Notify: NotifyConfig{
			SMTPHost:       os.Getenv("SMTP_HOST"),
			SMTPPort:       envOrDefaultInt("SMTP_PORT", 587),
			SMTPUsername:   os.Getenv("SMTP_USERNAME"),
			SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
			From:           envOrDefault("SMTP_FROM", "alerts@voice-lead-pipeline.local"),
			AlertRecipient: os.Getenv("ALERT_RECIPIENT"),
		},
		OpenAI: OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  os.Getenv("OPENAI_MODEL"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envOrDefaultList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
