package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override
const EnvPrefix = "TOPIC_SCANNER"

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	return Load("")
}

// Load reads configuration from the given file, or searches the default
// locations when path is empty. A .env file in the working directory is
// loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/mail-topic-scanner/")
		v.AddConfigPath("$HOME/.mail-topic-scanner")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Mail source
	v.SetDefault("mail.source", "imap")
	v.SetDefault("mail.folder", "INBOX")
	v.SetDefault("mail.max_messages", 100)
	v.SetDefault("mail.days_back", 7)
	v.SetDefault("mail.unread_only", false)

	v.SetDefault("imap.address", "imap.gmail.com")
	v.SetDefault("imap.port", 993)
	v.SetDefault("imap.tls", true)
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.password", "")
	v.SetDefault("imap.timeout", "30s")

	v.SetDefault("gmail.credentials_file", "credentials.json")
	v.SetDefault("gmail.token_file", "token.json")
	v.SetDefault("gmail.user", "me")
	v.SetDefault("gmail.requests_per_second", 5)

	v.SetDefault("maildir.path", "./mail")

	v.SetDefault("intake.listen_address", "127.0.0.1:10026")
	v.SetDefault("intake.domain", "localhost")
	v.SetDefault("intake.max_message_bytes", 10*1024*1024)
	v.SetDefault("intake.buffer_size", 1000)

	// Categorization and analysis
	v.SetDefault("filter.exclude_domains", []string{})
	v.SetDefault("filter.exclude_keywords", []string{})
	v.SetDefault("filter.threshold", 0.3)
	v.SetDefault("filter.min_words", 50)

	// Topic generation
	v.SetDefault("topics.provider", "gemini")
	v.SetDefault("topics.max_per_scan", 10)
	v.SetDefault("topics.body_chars", 500)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-3.5-turbo")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.top_p", 0.9)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-2.0-flash-lite")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.top_p", 0.9)

	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.7)
	v.SetDefault("bedrock.top_p", 0.9)

	v.SetDefault("resilience.retry_max_attempts", 3)
	v.SetDefault("resilience.retry_initial_backoff", "500ms")
	v.SetDefault("resilience.retry_max_backoff", "5s")
	v.SetDefault("resilience.retry_multiplier", 2.0)
	v.SetDefault("resilience.breaker_enabled", true)
	v.SetDefault("resilience.breaker_min_requests", 5)
	v.SetDefault("resilience.breaker_failure_ratio", 0.6)
	v.SetDefault("resilience.breaker_open_timeout", "30s")
	v.SetDefault("resilience.breaker_half_open_max_calls", 1)

	// Storage
	v.SetDefault("store.type", "sqlite")
	v.SetDefault("store.sqlite_path", "./data/topic_scanner.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/topic_scanner?parseTime=true")
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo_database", "topic_scanner")
	v.SetDefault("store.retention", "720h")
	v.SetDefault("store.cleanup_frequency", "1h")

	v.SetDefault("dedupe.type", "memory")
	v.SetDefault("dedupe.ttl", "720h")

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "topic-scanner:seen:")

	// Report delivery
	v.SetDefault("report.enabled", true)
	v.SetDefault("report.transport", "smtp")
	v.SetDefault("report.recipient", "")
	v.SetDefault("report.from", "")

	v.SetDefault("smtp.address", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.starttls", true)
	v.SetDefault("smtp.timeout", "30s")

	// Scheduling and operations
	v.SetDefault("scheduler.scan_times", []string{"09:00", "18:00"})
	v.SetDefault("scheduler.timezone", "UTC")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.listen_address", ":9090")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

// Set overrides a single key, used by command line flags
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// WriteDefault writes the default configuration as YAML
func WriteDefault(path string) error {
	v := NewEmptyViper()

	out, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
