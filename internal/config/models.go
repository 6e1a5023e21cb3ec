package config

import "time"

// MailConfig selects the mail source and the fetch window
type MailConfig struct {
	Source      string
	Folder      string
	MaxMessages int
	DaysBack    int
	UnreadOnly  bool
}

// IMAPConfig represents the configuration for an IMAP mailbox
type IMAPConfig struct {
	Address  string
	Port     int
	TLS      bool
	Username string
	Password string
	Timeout  time.Duration
}

// GmailConfig represents the configuration for the Gmail API
type GmailConfig struct {
	CredentialsFile   string
	TokenFile         string
	User              string
	RequestsPerSecond float64
}

// MaildirConfig points at a directory of .eml files
type MaildirConfig struct {
	Path string
}

// IntakeConfig represents the configuration for the SMTP intake listener
type IntakeConfig struct {
	ListenAddress   string
	Domain          string
	MaxMessageBytes int64
	BufferSize      int
}

// FilterConfig carries the user-tunable categorization settings
type FilterConfig struct {
	ExcludeDomains  []string
	ExcludeKeywords []string
	Threshold       float64
	MinWords        int
}

// TopicsConfig represents the configuration for topic generation
type TopicsConfig struct {
	Provider   string
	MaxPerScan int
	BodyChars  int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// ResilienceConfig tunes retries and the circuit breaker around remote calls
type ResilienceConfig struct {
	RetryMaxAttempts        int
	RetryInitialBackoff     time.Duration
	RetryMaxBackoff         time.Duration
	RetryMultiplier         float64
	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

// StoreConfig represents the configuration for the result store
type StoreConfig struct {
	Type             string
	SQLitePath       string
	MySQLDSN         string
	MongoURI         string
	MongoDatabase    string
	Retention        time.Duration
	CleanupFrequency time.Duration
}

// DedupeConfig represents the configuration for cross-run duplicate detection
type DedupeConfig struct {
	Type string
	TTL  time.Duration
}

// RedisConfig represents the configuration for Redis
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// ReportConfig controls the summary email
type ReportConfig struct {
	Enabled   bool
	Transport string
	Recipient string
	From      string
}

// SMTPConfig represents the configuration for the outgoing SMTP relay
type SMTPConfig struct {
	Address  string
	Port     int
	Username string
	Password string
	StartTLS bool
	Timeout  time.Duration
}

// SchedulerConfig lists the daily scan times
type SchedulerConfig struct {
	ScanTimes []string
	Timezone  string
}

// MetricsConfig represents the configuration for the Prometheus endpoint
type MetricsConfig struct {
	Enabled       bool
	ListenAddress string
}

// LoggingConfig represents the logger configuration
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

func (c *Config) GetMail() MailConfig {
	return MailConfig{
		Source:      c.GetString("mail.source"),
		Folder:      c.GetString("mail.folder"),
		MaxMessages: c.GetInt("mail.max_messages"),
		DaysBack:    c.GetInt("mail.days_back"),
		UnreadOnly:  c.GetBool("mail.unread_only"),
	}
}

func (c *Config) GetIMAP() IMAPConfig {
	return IMAPConfig{
		Address:  c.GetString("imap.address"),
		Port:     c.GetInt("imap.port"),
		TLS:      c.GetBool("imap.tls"),
		Username: c.GetString("imap.username"),
		Password: c.GetString("imap.password"),
		Timeout:  c.v.GetDuration("imap.timeout"),
	}
}

func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		CredentialsFile:   c.GetString("gmail.credentials_file"),
		TokenFile:         c.GetString("gmail.token_file"),
		User:              c.GetString("gmail.user"),
		RequestsPerSecond: c.GetFloat64("gmail.requests_per_second"),
	}
}

func (c *Config) GetMaildir() MaildirConfig {
	return MaildirConfig{Path: c.GetString("maildir.path")}
}

func (c *Config) GetIntake() IntakeConfig {
	return IntakeConfig{
		ListenAddress:   c.GetString("intake.listen_address"),
		Domain:          c.GetString("intake.domain"),
		MaxMessageBytes: c.v.GetInt64("intake.max_message_bytes"),
		BufferSize:      c.GetInt("intake.buffer_size"),
	}
}

// GetFilter returns the categorization settings
func (c *Config) GetFilter() FilterConfig {
	return FilterConfig{
		ExcludeDomains:  c.GetStringSlice("filter.exclude_domains"),
		ExcludeKeywords: c.GetStringSlice("filter.exclude_keywords"),
		Threshold:       c.GetFloat64("filter.threshold"),
		MinWords:        c.GetInt("filter.min_words"),
	}
}

// GetTopics returns the topic generation settings
func (c *Config) GetTopics() TopicsConfig {
	return TopicsConfig{
		Provider:   c.GetString("topics.provider"),
		MaxPerScan: c.GetInt("topics.max_per_scan"),
		BodyChars:  c.GetInt("topics.body_chars"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

func (c *Config) GetResilience() ResilienceConfig {
	return ResilienceConfig{
		RetryMaxAttempts:        c.GetInt("resilience.retry_max_attempts"),
		RetryInitialBackoff:     c.v.GetDuration("resilience.retry_initial_backoff"),
		RetryMaxBackoff:         c.v.GetDuration("resilience.retry_max_backoff"),
		RetryMultiplier:         c.GetFloat64("resilience.retry_multiplier"),
		BreakerEnabled:          c.GetBool("resilience.breaker_enabled"),
		BreakerMinRequests:      c.v.GetUint32("resilience.breaker_min_requests"),
		BreakerFailureRatio:     c.GetFloat64("resilience.breaker_failure_ratio"),
		BreakerOpenTimeout:      c.v.GetDuration("resilience.breaker_open_timeout"),
		BreakerHalfOpenMaxCalls: c.v.GetUint32("resilience.breaker_half_open_max_calls"),
	}
}

// GetStore returns the result store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:             c.GetString("store.type"),
		SQLitePath:       c.GetString("store.sqlite_path"),
		MySQLDSN:         c.GetString("store.mysql_dsn"),
		MongoURI:         c.GetString("store.mongo_uri"),
		MongoDatabase:    c.GetString("store.mongo_database"),
		Retention:        c.v.GetDuration("store.retention"),
		CleanupFrequency: c.v.GetDuration("store.cleanup_frequency"),
	}
}

func (c *Config) GetDedupe() DedupeConfig {
	return DedupeConfig{
		Type: c.GetString("dedupe.type"),
		TTL:  c.v.GetDuration("dedupe.ttl"),
	}
}

func (c *Config) GetRedis() RedisConfig {
	return RedisConfig{
		Address:   c.GetString("redis.address"),
		Password:  c.GetString("redis.password"),
		DB:        c.GetInt("redis.db"),
		KeyPrefix: c.GetString("redis.key_prefix"),
	}
}

func (c *Config) GetReport() ReportConfig {
	return ReportConfig{
		Enabled:   c.GetBool("report.enabled"),
		Transport: c.GetString("report.transport"),
		Recipient: c.GetString("report.recipient"),
		From:      c.GetString("report.from"),
	}
}

func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Address:  c.GetString("smtp.address"),
		Port:     c.GetInt("smtp.port"),
		Username: c.GetString("smtp.username"),
		Password: c.GetString("smtp.password"),
		StartTLS: c.GetBool("smtp.starttls"),
		Timeout:  c.v.GetDuration("smtp.timeout"),
	}
}

func (c *Config) GetScheduler() SchedulerConfig {
	return SchedulerConfig{
		ScanTimes: c.GetStringSlice("scheduler.scan_times"),
		Timezone:  c.GetString("scheduler.timezone"),
	}
}

func (c *Config) GetMetrics() MetricsConfig {
	return MetricsConfig{
		Enabled:       c.GetBool("metrics.enabled"),
		ListenAddress: c.GetString("metrics.listen_address"),
	}
}

// GetLogging returns the logger configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
		File:   c.GetString("logging.file"),
	}
}
