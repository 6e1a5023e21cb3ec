// Package pipeline runs categorization and content analysis over a batch
// of messages and selects the ones eligible for topic generation.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/analyzer"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

// Categorizer assigns one category per message. Faults come back as
// CategoryError results.
type Categorizer interface {
	Categorize(msg core.Message) core.CategorizationResult
}

// Analyzer extracts content features and decides eligibility
type Analyzer interface {
	Analyze(msg core.Message) core.ContentAnalysis
	ShouldProcess(analysis core.ContentAnalysis) bool
	Assess(msg core.Message) core.RelevanceAssessment
}

// Pipeline holds only read-only state and is safe for concurrent Run calls
type Pipeline struct {
	categorizer Categorizer
	analyzer    Analyzer
	logger      *zap.Logger
}

// New creates a new batch pipeline
func New(c Categorizer, a Analyzer, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		categorizer: c,
		analyzer:    a,
		logger:      logger,
	}
}

// Run processes a batch. It always returns a result; per-message faults are
// carried in the records.
func (p *Pipeline) Run(messages []core.Message) core.BatchResult {
	buckets := make(map[core.Category][]core.CategorizationRecord, len(core.CategoryOrder))
	for _, cat := range core.CategoryOrder {
		buckets[cat] = nil
	}

	for _, msg := range messages {
		result := p.categorizer.Categorize(msg)
		bucket := bucketFor(result)
		buckets[bucket] = append(buckets[bucket], core.CategorizationRecord{
			Message: msg,
			Result:  result,
		})
	}

	eligible, duplicates := p.selectEligible(buckets)
	stats := ComputeStats(buckets, len(messages))

	p.logger.Debug("Batch processed",
		zap.Int("messages", len(messages)),
		zap.Int("eligible", len(eligible)),
		zap.Int("duplicates", duplicates))

	return core.BatchResult{
		Buckets:    buckets,
		Eligible:   eligible,
		Stats:      stats,
		Duplicates: duplicates,
	}
}

// selectEligible analyzes the in-scope buckets and keeps the first message
// for each content hash
func (p *Pipeline) selectEligible(buckets map[core.Category][]core.CategorizationRecord) ([]core.EligibleMessage, int) {
	var eligible []core.EligibleMessage
	seen := make(map[string]struct{})
	duplicates := 0

	for _, cat := range core.CategoryOrder {
		if !cat.IsInScope() {
			continue
		}
		for _, rec := range buckets[cat] {
			analysis := p.analyzer.Analyze(rec.Message)
			if !p.analyzer.ShouldProcess(analysis) {
				continue
			}
			if _, dup := seen[analysis.ContentHash]; dup {
				p.logger.Debug("Skipping duplicate content",
					zap.String("message_id", rec.Message.ID),
					zap.String("hash", analysis.ContentHash))
				duplicates++
				continue
			}
			seen[analysis.ContentHash] = struct{}{}

			eligible = append(eligible, core.EligibleMessage{
				Message:        rec.Message,
				Categorization: rec.Result,
				Analysis:       analysis,
				Relevance:      p.analyzer.Assess(rec.Message),
				Priority:       analyzer.Priority(analysis),
				Summary:        analyzer.Summary(rec.Message, analysis),
			})
		}
	}

	return eligible, duplicates
}

// Faulted results are kept in the other bucket so counts still sum to the batch size
func bucketFor(result core.CategorizationResult) core.Category {
	if result.Category == core.CategoryError {
		return core.CategoryOther
	}
	return result.Category
}
