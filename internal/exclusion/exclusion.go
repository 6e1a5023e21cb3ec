package exclusion

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/rules"
	"github.com/mikey/mail-topic-scanner/internal/scoring"
)

// SpamIndicatorLimit is the number of distinct spam phrases that excludes a message
const SpamIndicatorLimit = 3

// Match names the rule that excluded a message
type Match string

const (
	NoMatch           Match = ""
	MatchStaticDomain Match = "static_domain"
	MatchUserDomain   Match = "user_domain"
	MatchSpam         Match = "spam_indicators"
	MatchUserKeyword  Match = "user_keyword"
)

// Checker decides whether a message is excluded before any scoring happens
type Checker struct {
	staticDomains  []string
	spamIndicators []string
	userDomains    []string
	userKeywords   []string
	logger         *zap.Logger
}

// NewChecker creates a new exclusion checker from the rule book and the
// user-configured exclude lists
func NewChecker(book *rules.RuleBook, userDomains, userKeywords []string, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Checker{
		staticDomains:  book.ExcludedDomains(),
		spamIndicators: book.SpamIndicators(),
		userDomains:    normalize(userDomains),
		userKeywords:   normalize(userKeywords),
		logger:         logger,
	}

	if len(c.userDomains) > 0 || len(c.userKeywords) > 0 {
		logger.Info("Initialized exclusion checker",
			zap.Strings("domains", c.userDomains),
			zap.Strings("keywords", c.userKeywords))
	}

	return c
}

// Check returns the first exclusion rule the message matches, or NoMatch
func (c *Checker) Check(f *scoring.Fields) Match {
	domain := f.Domain()

	switch {
	case domain != "" && slices.Contains(c.staticDomains, domain):
		c.logger.Debug("Sender domain is excluded", zap.String("domain", domain))
		return MatchStaticDomain
	case domain != "" && slices.Contains(c.userDomains, domain):
		c.logger.Debug("Sender domain is excluded by user", zap.String("domain", domain))
		return MatchUserDomain
	}

	if n := c.SpamScore(f); n >= SpamIndicatorLimit {
		c.logger.Debug("Too many spam indicators", zap.Int("count", n))
		return MatchSpam
	}

	if slices.ContainsFunc(c.userKeywords, f.ContainsPhrase) {
		return MatchUserKeyword
	}

	return NoMatch
}

// IsExcluded reports whether any exclusion rule matches
func (c *Checker) IsExcluded(f *scoring.Fields) bool {
	return c.Check(f) != NoMatch
}

// SpamScore counts the distinct spam indicator phrases in subject and body
func (c *Checker) SpamScore(f *scoring.Fields) int {
	n := 0
	for _, phrase := range c.spamIndicators {
		if f.ContainsPhrase(phrase) {
			n++
		}
	}
	return n
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
