package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

func TestPrintMessageAndCategorization(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.PrintMessage(core.Message{
		From:    "news@golangweekly.com",
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "Go Weekly",
		Body:    strings.Repeat("x", 600),
	})
	p.PrintCategorization(core.CategorizationResult{
		Category:   core.CategoryTech,
		Confidence: 0.8,
		Reason:     "Matched tech rules",
		Scores:     map[core.Category]float64{core.CategoryTech: 0.8, core.CategoryNewsletter: 0.5},
	}, 3*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "To: a@example.com, b@example.com")
	assert.Contains(t, out, "Body length: 600 bytes")
	assert.Contains(t, out, strings.Repeat("x", 500)+"...")
	assert.Contains(t, out, "Category: tech")
	assert.Contains(t, out, "Confidence: 0.8000")
	assert.Less(t, strings.Index(out, "newsletter"), strings.Index(out, "  tech"), "scores are sorted")
}

func TestPrintAnalysisError(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, false).PrintAnalysis(core.ContentAnalysis{Err: errors.New("boom")}, core.RelevanceAssessment{}, false, 0)
	assert.Contains(t, buf.String(), "Error: boom")
	assert.NotContains(t, buf.String(), "Content type")
}

func TestPrintScan(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, false).PrintScan(&core.ScanOutcome{
		Log: core.ScanLog{
			RunID:           "run-1",
			Status:          core.ScanStatusPartial,
			MessagesFetched: 3,
			Errors:          []string{"tech: rate limited"},
		},
		Batch: core.BatchResult{Stats: core.BatchStats{
			Total: 3,
			Categories: map[core.Category]core.CategoryStats{
				core.CategoryTech:  {Count: 3, Percentage: 100, AvgConfidence: 0.7},
				core.CategoryOther: {},
			},
		}},
		Topics: []core.Topic{{Title: "Go 1.23 iterators", Category: core.CategoryTech, Difficulty: core.DifficultyAdvanced}},
		Report: &core.RenderedReport{Subject: "Email Scanner Summary Report - 2024-05-01"},
	})

	out := buf.String()
	assert.Contains(t, out, "=== Scan run-1 ===")
	assert.Contains(t, out, "Status: partial")
	assert.NotContains(t, out, "other")
	assert.Contains(t, out, "1. Go 1.23 iterators [tech, Advanced]")
	assert.Contains(t, out, "  - tech: rate limited")
	assert.Contains(t, out, "Report: Email Scanner Summary Report - 2024-05-01")
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.PrintStatus(&core.Statistics{TotalMessages: 5}, nil, nil)
	assert.Contains(t, buf.String(), "Last scan: never")

	buf.Reset()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	p.PrintStatus(
		&core.Statistics{TotalMessages: 5, CategorizedMessages: 4, TopicsGenerated: 2,
			LastScan: &core.ScanLog{StartedAt: at, Status: core.ScanStatusSuccess, TopicsGenerated: 2}},
		[]core.StoredMessage{{Subject: "Hello", Category: core.CategorySocial, ProcessedAt: at}},
		[]core.Topic{{Title: "Topic", Category: core.CategoryTech, GeneratedAt: at}},
	)
	out := buf.String()
	assert.Contains(t, out, "Last scan: 2024-05-01T09:00:00Z (success, 2 topics)")
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "Recent topics:")
}
