package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

// Known adapter names per setting
var (
	MailSources     = []string{"imap", "gmail", "maildir", "intake"}
	TopicProviders  = []string{"gemini", "openai", "bedrock", "none"}
	StoreTypes      = []string{"memory", "sqlite", "mysql", "mongo"}
	DedupeTypes     = []string{"none", "memory", "redis"}
	ReportTransport = []string{"smtp", "gmail"}
)

var durationKeys = []string{
	"imap.timeout",
	"resilience.retry_initial_backoff",
	"resilience.retry_max_backoff",
	"resilience.breaker_open_timeout",
	"store.retention",
	"store.cleanup_frequency",
	"dedupe.ttl",
	"smtp.timeout",
}

// Validate checks every setting and returns all violations joined
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	for _, key := range durationKeys {
		if _, err := c.GetDuration(key); err != nil {
			add("invalid duration: %w", err)
		}
	}

	filter := c.GetFilter()
	if filter.Threshold < 0 || filter.Threshold > 1 {
		add("filter.threshold must be within [0, 1], got %v", filter.Threshold)
	}
	if filter.MinWords < 0 {
		add("filter.min_words must not be negative, got %d", filter.MinWords)
	}

	mail := c.GetMail()
	if !slices.Contains(MailSources, mail.Source) {
		add("unknown mail.source %q", mail.Source)
	}
	if mail.MaxMessages <= 0 {
		add("mail.max_messages must be positive, got %d", mail.MaxMessages)
	}
	if mail.DaysBack < 0 {
		add("mail.days_back must not be negative, got %d", mail.DaysBack)
	}
	switch mail.Source {
	case "imap":
		imap := c.GetIMAP()
		if imap.Username == "" || imap.Password == "" {
			add("imap.username and imap.password are required for the imap source")
		}
	case "gmail":
		if _, err := os.Stat(c.GetGmail().CredentialsFile); err != nil {
			add("gmail.credentials_file: %w", err)
		}
	case "maildir":
		if c.GetMaildir().Path == "" {
			add("maildir.path is required for the maildir source")
		}
	}

	topics := c.GetTopics()
	if !slices.Contains(TopicProviders, topics.Provider) {
		add("unknown topics.provider %q", topics.Provider)
	}
	if topics.MaxPerScan <= 0 {
		add("topics.max_per_scan must be positive, got %d", topics.MaxPerScan)
	}
	switch topics.Provider {
	case "gemini":
		if c.GetGemini().APIKey == "" {
			add("gemini.api_key is required for the gemini provider")
		}
	case "openai":
		if c.GetOpenAI().APIKey == "" {
			add("openai.api_key is required for the openai provider")
		}
	}

	store := c.GetStore()
	if !slices.Contains(StoreTypes, store.Type) {
		add("unknown store.type %q", store.Type)
	}
	if dedupe := c.GetDedupe(); !slices.Contains(DedupeTypes, dedupe.Type) {
		add("unknown dedupe.type %q", dedupe.Type)
	}

	if report := c.GetReport(); report.Enabled {
		if !slices.Contains(ReportTransport, report.Transport) {
			add("unknown report.transport %q", report.Transport)
		}
		if report.Recipient == "" {
			add("report.recipient is required when reports are enabled")
		}
	}

	sched := c.GetScheduler()
	if _, err := time.LoadLocation(sched.Timezone); err != nil {
		add("scheduler.timezone: %w", err)
	}
	for _, t := range sched.ScanTimes {
		if _, _, err := ParseScanTime(t); err != nil {
			add("scheduler.scan_times: %w", err)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return core.WrapError(core.ErrInvalidConfig, "validate config", errors.Join(errs...))
}

// ParseScanTime parses an "HH:MM" daily scan time
func ParseScanTime(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid scan time %q: want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}
