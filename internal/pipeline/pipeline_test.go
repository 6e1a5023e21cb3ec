package pipeline

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/analyzer"
	"github.com/mikey/mail-topic-scanner/internal/categorizer"
	"github.com/mikey/mail-topic-scanner/internal/core"
	"github.com/mikey/mail-topic-scanner/internal/rules"
)

var readableBody = strings.Repeat("The new release of the tool is out. We wrote a post on how to run it with docker and go. ", 3)

func newPipeline() *Pipeline {
	book := rules.Default()
	return New(
		categorizer.New(book, categorizer.Options{}, zap.NewNop()),
		analyzer.New(book, analyzer.Options{}, zap.NewNop()),
		zap.NewNop(),
	)
}

func batch() []core.Message {
	return []core.Message{
		{ID: "tech", From: "a@github.com", Subject: "Kubernetes release notes", Body: readableBody},
		{ID: "bank", From: "billing@chase.com", Subject: "Statement", Body: readableBody},
		{ID: "dup", From: "x@dev.to", Subject: "Docker tips", Body: readableBody},
		{ID: "other", From: "a@example.org", Subject: "hello", Body: "see you soon"},
		{ID: "social", From: "a@mastodon.social", Subject: "New follow", Body: "someone"},
		{ID: "short", From: "a@github.com", Subject: "git", Body: "short"},
	}
}

func TestRunBucketsAndStats(t *testing.T) {
	result := newPipeline().Run(batch())

	ids := func(cat core.Category) []string {
		var out []string
		for _, rec := range result.Buckets[cat] {
			out = append(out, rec.Message.ID)
		}
		return out
	}
	assert.Equal(t, []string{"tech", "dup", "short"}, ids(core.CategoryTech))
	assert.Equal(t, []string{"bank"}, ids(core.CategoryExcluded))
	assert.Equal(t, []string{"other"}, ids(core.CategoryOther))
	assert.Equal(t, []string{"social"}, ids(core.CategorySocial))
	assert.Empty(t, ids(core.CategoryNewsletter))

	sum := 0
	for _, cs := range result.Stats.Categories {
		sum += cs.Count
	}
	assert.Equal(t, 6, sum)
	assert.Equal(t, 6, result.Stats.Total)
	assert.Len(t, result.Stats.Categories, len(core.CategoryOrder))

	tech := result.Stats.Categories[core.CategoryTech]
	assert.Equal(t, 50.0, tech.Percentage)
	assert.Equal(t, 0.833, tech.AvgConfidence)
	assert.Equal(t, 0.0, result.Stats.Categories[core.CategoryNewsletter].AvgConfidence)
	assert.Equal(t, 1.0, result.Stats.Categories[core.CategoryExcluded].AvgConfidence)
}

func TestRunEligibleDedupesByHash(t *testing.T) {
	result := newPipeline().Run(batch())

	require.Len(t, result.Eligible, 1)
	assert.Equal(t, 1, result.Duplicates)

	e := result.Eligible[0]
	assert.Equal(t, "tech", e.Message.ID)
	assert.Equal(t, core.CategoryTech, e.Categorization.Category)
	assert.Equal(t, analyzer.ContentHash(readableBody), e.Analysis.ContentHash)
	assert.Equal(t, analyzer.Priority(e.Analysis), e.Priority)
	assert.Contains(t, e.Summary, "Email from a@github.com")
	assert.Equal(t, "github.com", e.Relevance.SenderDomain)
}

func TestRunEmptyBatch(t *testing.T) {
	result := newPipeline().Run(nil)

	assert.Empty(t, result.Eligible)
	assert.Equal(t, 0, result.Stats.Total)
	for _, cat := range core.CategoryOrder {
		assert.Equal(t, core.CategoryStats{}, result.Stats.Categories[cat])
	}
}

func TestRunSocialNeverEligible(t *testing.T) {
	msg := core.Message{ID: "s", From: "a@mastodon.social", Subject: "New follow", Body: readableBody}
	result := newPipeline().Run([]core.Message{msg})

	assert.Len(t, result.Buckets[core.CategorySocial], 1)
	assert.Empty(t, result.Eligible)
}

func TestRunConcurrent(t *testing.T) {
	p := newPipeline()
	want := p.Run(batch()).Stats

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, p.Run(batch()).Stats)
		}()
	}
	wg.Wait()
}

type faultyCategorizer struct {
	*categorizer.Categorizer
	failID string
}

func (f faultyCategorizer) Categorize(msg core.Message) core.CategorizationResult {
	if msg.ID == f.failID {
		err := errors.New("rule set unavailable")
		return core.CategorizationResult{Category: core.CategoryError, Reason: err.Error(), Err: err}
	}
	return f.Categorizer.Categorize(msg)
}

type faultyAnalyzer struct {
	*analyzer.Analyzer
	failID string
}

func (f faultyAnalyzer) Analyze(msg core.Message) core.ContentAnalysis {
	if msg.ID == f.failID {
		return core.ContentAnalysis{Err: errors.New("tokenizer fault")}
	}
	return f.Analyzer.Analyze(msg)
}

func signed(name string) string {
	return readableBody + "Thanks, " + name + "."
}

// mixed is deliberately out of category order
func mixed() []core.Message {
	return []core.Message{
		{ID: "prof", From: "editors@hbr.org", Subject: "Leadership strategy", Body: signed("Ana")},
		{ID: "news", From: "author@substack.com", Subject: "Weekly digest", Body: signed("Bo")},
		{ID: "fault", From: "a@github.com", Subject: "Docker tips", Body: signed("Cy")},
		{ID: "tech-b", From: "b@github.com", Subject: "Kubernetes release notes", Body: signed("Di")},
		{ID: "tech-a", From: "a@github.com", Subject: "Kubernetes release notes", Body: signed("Ed")},
	}
}

func eligibleIDs(result core.BatchResult) []string {
	var out []string
	for _, e := range result.Eligible {
		out = append(out, e.Message.ID)
	}
	return out
}

func newFaultyPipeline(categorizeFail, analyzeFail string) *Pipeline {
	book := rules.Default()
	return New(
		faultyCategorizer{categorizer.New(book, categorizer.Options{}, zap.NewNop()), categorizeFail},
		faultyAnalyzer{analyzer.New(book, analyzer.Options{}, zap.NewNop()), analyzeFail},
		zap.NewNop(),
	)
}

func TestRunEligibleFollowsCategoryOrder(t *testing.T) {
	result := newPipeline().Run(mixed())

	assert.Equal(t, []string{"fault", "tech-b", "tech-a", "news", "prof"}, eligibleIDs(result))
	assert.Zero(t, result.Duplicates)
}

func TestRunFaultedCategorizationKeepsBatch(t *testing.T) {
	result := newFaultyPipeline("fault", "").Run(mixed())

	require.Len(t, result.Buckets[core.CategoryOther], 1)
	rec := result.Buckets[core.CategoryOther][0]
	assert.Equal(t, "fault", rec.Message.ID)
	assert.Equal(t, core.CategoryError, rec.Result.Category)
	assert.True(t, rec.Result.Failed())

	assert.Len(t, result.Buckets[core.CategoryTech], 2)
	assert.Len(t, result.Buckets[core.CategoryNewsletter], 1)
	assert.Len(t, result.Buckets[core.CategoryProfessional], 1)
	assert.Equal(t, []string{"tech-b", "tech-a", "news", "prof"}, eligibleIDs(result))

	sum := 0
	for _, cs := range result.Stats.Categories {
		sum += cs.Count
	}
	assert.Equal(t, len(mixed()), sum)
	assert.Equal(t, len(mixed()), result.Stats.Total)
}

func TestRunFaultedAnalysisKeepsBatch(t *testing.T) {
	result := newFaultyPipeline("", "tech-b").Run(mixed())

	assert.Len(t, result.Buckets[core.CategoryTech], 3)
	assert.Equal(t, []string{"fault", "tech-a", "news", "prof"}, eligibleIDs(result))
	assert.Equal(t, len(mixed()), result.Stats.Total)
}

func TestErrorResultsLandInOther(t *testing.T) {
	assert.Equal(t, core.CategoryOther, bucketFor(core.CategorizationResult{Category: core.CategoryError}))
	assert.Equal(t, core.CategoryTech, bucketFor(core.CategorizationResult{Category: core.CategoryTech}))
}

func TestComputeStatsRounding(t *testing.T) {
	buckets := map[core.Category][]core.CategorizationRecord{
		core.CategoryNewsletter: {
			{Result: core.CategorizationResult{Confidence: 0.9}},
			{Result: core.CategorizationResult{Confidence: 0.5}},
			{Result: core.CategorizationResult{Confidence: 0.3}},
		},
	}
	stats := ComputeStats(buckets, 7)

	nl := stats.Categories[core.CategoryNewsletter]
	assert.Equal(t, 3, nl.Count)
	assert.Equal(t, 42.86, nl.Percentage)
	assert.Equal(t, 0.567, nl.AvgConfidence)
	assert.Equal(t, 0, stats.Categories[core.CategoryTech].Count)
}
