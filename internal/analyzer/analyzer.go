// Package analyzer is the secondary, category independent content scorer.
// It produces content type, language style, sentiment, readability, key
// topics, links and a content hash, and decides which messages are worth
// sending to topic generation.
package analyzer

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/core"
	"github.com/mikey/mail-topic-scanner/internal/rules"
	"github.com/mikey/mail-topic-scanner/internal/scoring"
)

// DefaultMinWords is the word floor for topic eligibility
const DefaultMinWords = 50

// Options carries the user-tunable analyzer settings
type Options struct {
	MinWords int
}

// Analyzer computes ContentAnalysis records
type Analyzer struct {
	book     *rules.RuleBook
	minWords int
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a new content analyzer. A zero word floor selects DefaultMinWords.
func New(book *rules.RuleBook, opts Options, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	minWords := opts.MinWords
	if minWords <= 0 {
		minWords = DefaultMinWords
	}
	return &Analyzer{
		book:     book,
		minWords: minWords,
		logger:   logger,
		now:      time.Now,
	}
}

// MinWords returns the eligibility word floor in use
func (a *Analyzer) MinWords() int {
	return a.minWords
}

// Analyze computes the content analysis of a message. A fault is recorded
// in the Err field and never propagates.
func (a *Analyzer) Analyze(msg core.Message) (analysis core.ContentAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("analyze %q: %v", msg.ID, r)
			a.logger.Error("Content analysis failed", zap.String("message_id", msg.ID), zap.Error(err))
			analysis = core.ContentAnalysis{AnalyzedAt: a.now(), Err: err}
		}
	}()

	body := msg.Body
	lowerBody := strings.ToLower(body)
	lowerAll := strings.ToLower(msg.Subject + " " + body)

	return core.ContentAnalysis{
		ContentType:    a.contentType(lowerAll),
		LanguageStyle:  a.languageStyle(lowerBody),
		Sentiment:      a.sentiment(lowerAll),
		Readability:    Readability(body),
		KeyTopics:      a.keyTopics(lowerBody),
		Links:          ExtractLinks(body),
		HasAttachments: len(msg.Attachments) > 0,
		WordCount:      len(strings.Fields(body)),
		CharacterCount: utf8.RuneCountInString(body),
		ContentHash:    ContentHash(body),
		AnalyzedAt:     a.now(),
	}
}

// Assess runs the secondary relevance/quality scorer for a message
func (a *Analyzer) Assess(msg core.Message) core.RelevanceAssessment {
	return scoring.AssessRelevance(a.book, scoring.NewFields(msg.From, msg.Subject, msg.Body))
}

// contentType counts pattern hits per type; ties keep the first-defined type
func (a *Analyzer) contentType(text string) core.ContentType {
	best := core.ContentGeneral
	bestCount := 0
	for _, cp := range a.book.ContentPatterns() {
		count := 0
		for _, p := range cp.Patterns {
			if p.MatchString(text) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = cp.Type, count
		}
	}
	return best
}

func (a *Analyzer) languageStyle(body string) map[string]float64 {
	scores := make(map[string]float64, len(a.book.Styles()))
	for _, style := range a.book.Styles() {
		if len(style.Words) == 0 {
			scores[style.Style] = 0
			continue
		}
		hits := 0
		for _, w := range style.Words {
			if strings.Contains(body, w) {
				hits++
			}
		}
		scores[style.Style] = float64(hits) / float64(len(style.Words))
	}
	return scores
}

func (a *Analyzer) sentiment(text string) core.Sentiment {
	positive := countContained(text, a.book.PositiveWords())
	negative := countContained(text, a.book.NegativeWords())
	switch {
	case positive > negative:
		return core.SentimentPositive
	case negative > positive:
		return core.SentimentNegative
	default:
		return core.SentimentNeutral
	}
}

func countContained(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}
