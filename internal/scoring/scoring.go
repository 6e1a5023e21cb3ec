// Package scoring computes bounded category and relevance scores for a
// message against the rule tables.
package scoring

import (
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/mikey/mail-topic-scanner/internal/rules"
)

// Category score weights
const (
	DomainWeight     = 0.4
	SubjectWeight    = 0.3
	BodyWeight       = 0.2
	ExclusionPenalty = 0.5
)

var tokenPattern = regexp.MustCompile(`\w+`)

// Fields is the lower-cased text of one message, tokenized once and reused
// across every rule set.
type Fields struct {
	Sender  string
	Subject string
	Body    string

	domain        string
	subjectTokens map[string]struct{}
	bodyTokens    map[string]struct{}
}

// NewFields lower-cases and tokenizes the sender, subject and body
func NewFields(sender, subject, body string) *Fields {
	f := &Fields{
		Sender:  strings.ToLower(sender),
		Subject: strings.ToLower(subject),
		Body:    strings.ToLower(body),
	}
	f.domain = ExtractDomain(f.Sender)
	f.subjectTokens = tokenSet(f.Subject)
	f.bodyTokens = tokenSet(f.Body)
	return f
}

// Domain returns the sender domain
func (f *Fields) Domain() string {
	return f.domain
}

// SubjectHas reports whether the keyword occurs in the subject
func (f *Fields) SubjectHas(keyword string) bool {
	return containsKeyword(f.Subject, f.subjectTokens, keyword)
}

// BodyHas reports whether the keyword occurs in the body
func (f *Fields) BodyHas(keyword string) bool {
	return containsKeyword(f.Body, f.bodyTokens, keyword)
}

// ContainsPhrase reports a plain substring match in subject or body
func (f *Fields) ContainsPhrase(phrase string) bool {
	phrase = strings.ToLower(phrase)
	if phrase == "" {
		return false
	}
	return strings.Contains(f.Subject, phrase) || strings.Contains(f.Body, phrase)
}

// ExtractDomain returns the lower-cased domain of an address such as
// "Jane <jane@example.com>". Input without '@' is returned lower-cased.
func ExtractDomain(address string) string {
	addr := strings.ToLower(strings.TrimSpace(address))
	if start := strings.Index(addr, "<"); start >= 0 {
		if end := strings.Index(addr[start:], ">"); end > 0 {
			addr = addr[start+1 : start+end]
		}
	}
	if at := strings.LastIndex(addr, "@"); at >= 0 {
		return addr[at+1:]
	}
	return addr
}

// ScoreCategory scores the message against one category rule set. The
// result is clamped to [0, 1].
func ScoreCategory(f *Fields, set rules.CategoryRuleSet) float64 {
	score := 0.0

	if f.domain != "" && slices.Contains(set.Domains, f.domain) {
		score += DomainWeight
	}
	if slices.ContainsFunc(set.Keywords, f.SubjectHas) {
		score += SubjectWeight
	}
	if slices.ContainsFunc(set.Keywords, f.BodyHas) {
		score += BodyWeight
	}
	if slices.ContainsFunc(set.ExcludeKeywords, f.ContainsPhrase) {
		score -= ExclusionPenalty
	}

	return Clamp(score)
}

// Clamp bounds a score to [0, 1] and drops float noise past four decimals
func Clamp(score float64) float64 {
	score = math.Max(0, math.Min(1, score))
	return math.Round(score*10000) / 10000
}

// Single-word keywords match whole tokens so "go" does not hit "google".
// Keywords with spaces or punctuation ("machine learning", "node.js")
// fall back to substring matching.
func containsKeyword(text string, tokens map[string]struct{}, keyword string) bool {
	if keyword == "" {
		return false
	}
	if isWord(keyword) {
		_, ok := tokens[keyword]
		return ok
	}
	return strings.Contains(text, keyword)
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

func tokenSet(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		tokens[tok] = struct{}{}
	}
	return tokens
}
