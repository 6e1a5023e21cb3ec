// Package categorizer assigns each message to exactly one category.
package categorizer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/core"
	"github.com/mikey/mail-topic-scanner/internal/exclusion"
	"github.com/mikey/mail-topic-scanner/internal/rules"
	"github.com/mikey/mail-topic-scanner/internal/scoring"
)

// DefaultThreshold is the minimum score a category needs to be accepted
const DefaultThreshold = 0.3

const (
	reasonExcluded = "Matched exclusion criteria"
	reasonNoMatch  = "No clear category match"
)

// Options carries the user-tunable categorizer settings
type Options struct {
	ExcludeDomains  []string
	ExcludeKeywords []string
	Threshold       float64
}

// Categorizer scores messages against the category rule sets
type Categorizer struct {
	sets      []rules.CategoryRuleSet
	checker   *exclusion.Checker
	threshold float64
	logger    *zap.Logger
}

// New creates a new categorizer. A zero threshold selects DefaultThreshold.
func New(book *rules.RuleBook, opts Options, logger *zap.Logger) *Categorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	return &Categorizer{
		sets:      book.Categories(),
		checker:   exclusion.NewChecker(book, opts.ExcludeDomains, opts.ExcludeKeywords, logger),
		threshold: threshold,
		logger:    logger,
	}
}

// Threshold returns the acceptance threshold in use
func (c *Categorizer) Threshold() float64 {
	return c.threshold
}

// Categorize assigns a category to the message. Internal faults are returned
// as an error result and never propagate.
func (c *Categorizer) Categorize(msg core.Message) (result core.CategorizationResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("categorize %q: %v", msg.ID, r)
			c.logger.Error("Categorization failed", zap.String("message_id", msg.ID), zap.Error(err))
			result = core.CategorizationResult{
				Category: core.CategoryError,
				Reason:   err.Error(),
				Err:      err,
			}
		}
	}()

	f := scoring.NewFields(msg.From, msg.Subject, msg.Body)

	if match := c.checker.Check(f); match != exclusion.NoMatch {
		c.logger.Debug("Message excluded",
			zap.String("message_id", msg.ID),
			zap.String("rule", string(match)))
		return core.CategorizationResult{
			Category:   core.CategoryExcluded,
			Confidence: 1.0,
			Reason:     reasonExcluded,
		}
	}

	scores := make(map[core.Category]float64)
	best := core.CategoryOther
	bestScore := 0.0
	for _, set := range c.sets {
		score := scoring.ScoreCategory(f, set)
		if score <= 0 {
			continue
		}
		scores[set.Category] = score
		// strict comparison keeps the first-defined category on ties
		if score > bestScore {
			best, bestScore = set.Category, score
		}
	}

	if bestScore < c.threshold {
		return core.CategorizationResult{
			Category: core.CategoryOther,
			Reason:   reasonNoMatch,
			Scores:   scores,
		}
	}

	return core.CategorizationResult{
		Category:   best,
		Confidence: bestScore,
		Reason:     fmt.Sprintf("Matched %s patterns", best),
		Scores:     scores,
	}
}
