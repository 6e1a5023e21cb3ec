// Package console prints categorization, scan and store results for the
// command line tools.
package console

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

const previewChars = 500

// Printer writes human readable summaries
type Printer struct {
	out     io.Writer
	verbose bool
}

// NewPrinter creates a new printer. verbose adds body previews and per
// category scores.
func NewPrinter(out io.Writer, verbose bool) *Printer {
	return &Printer{out: out, verbose: verbose}
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// PrintMessage prints the header summary of one message
func (p *Printer) PrintMessage(msg core.Message) {
	p.printf("\n=== Email Summary ===\n")
	p.printf("From: %s\n", msg.From)
	p.printf("To: %s\n", strings.Join(msg.To, ", "))
	p.printf("Subject: %s\n", msg.Subject)
	if !msg.Date.IsZero() {
		p.printf("Date: %s\n", msg.Date.Format(time.RFC1123Z))
	}
	p.printf("Body length: %d bytes\n", len(msg.Body))
	if len(msg.Attachments) > 0 {
		p.printf("Attachments: %d\n", len(msg.Attachments))
	}

	if p.verbose {
		preview := msg.Body
		if len(preview) > previewChars {
			preview = preview[:previewChars] + "..."
		}
		p.printf("\nBody preview:\n%s\n", preview)
	}
}

// PrintCategorization prints the categorization of one message
func (p *Printer) PrintCategorization(result core.CategorizationResult, duration time.Duration) {
	p.printf("\n=== Categorization ===\n")
	p.printf("Category: %s\n", result.Category)
	p.printf("Confidence: %.4f\n", result.Confidence)
	p.printf("Reason: %s\n", result.Reason)
	if result.Err != nil {
		p.printf("Error: %v\n", result.Err)
	}

	if p.verbose && len(result.Scores) > 0 {
		cats := make([]string, 0, len(result.Scores))
		for cat := range result.Scores {
			cats = append(cats, string(cat))
		}
		sort.Strings(cats)
		for _, cat := range cats {
			p.printf("  %-13s %.4f\n", cat, result.Scores[core.Category(cat)])
		}
	}
	p.printf("Processing time: %v\n", duration)
}

// PrintAnalysis prints the content analysis and the eligibility verdict
func (p *Printer) PrintAnalysis(a core.ContentAnalysis, rel core.RelevanceAssessment, eligible bool, priority int) {
	p.printf("\n=== Content Analysis ===\n")
	if a.Err != nil {
		p.printf("Error: %v\n", a.Err)
		return
	}
	p.printf("Content type: %s\n", a.ContentType)
	p.printf("Sentiment: %s\n", a.Sentiment)
	p.printf("Words: %d, characters: %d\n", a.WordCount, a.CharacterCount)
	p.printf("Readability: %.1f (avg sentence %.1f words)\n",
		a.Readability.FleschReadingEase, a.Readability.AvgSentenceLength)
	if len(a.KeyTopics) > 0 {
		p.printf("Key topics: %s\n", strings.Join(a.KeyTopics, ", "))
	}
	p.printf("Links: %d\n", len(a.Links))
	p.printf("Content hash: %s\n", a.ContentHash)
	p.printf("Relevance: %.2f, quality: %.2f, topic potential: %t\n",
		rel.RelevanceScore, rel.QualityScore, rel.TopicPotential)
	p.printf("Eligible for topics: %t\n", eligible)
	if eligible {
		p.printf("Priority: %d\n", priority)
	}
}

// PrintScan prints the outcome of a scan run
func (p *Printer) PrintScan(out *core.ScanOutcome) {
	log := out.Log
	p.printf("\n=== Scan %s ===\n", log.RunID)
	p.printf("Status: %s\n", log.Status)
	p.printf("Duration: %v\n", log.Duration.Round(time.Millisecond))
	p.printf("Fetched: %d, categorized: %d, eligible: %d, skipped as seen: %d\n",
		log.MessagesFetched, log.MessagesCategorized, log.Eligible, out.Skipped)

	if out.Batch.Stats.Total > 0 {
		p.printf("\nCategories:\n")
		for _, cat := range core.CategoryOrder {
			cs := out.Batch.Stats.Categories[cat]
			if cs.Count == 0 {
				continue
			}
			p.printf("  %-13s %4d  %6.2f%%  avg %.3f\n", cat, cs.Count, cs.Percentage, cs.AvgConfidence)
		}
	}

	if len(out.Topics) > 0 {
		p.printf("\nTopics:\n")
		for i, t := range out.Topics {
			p.printf("  %d. %s [%s, %s]\n", i+1, t.Title, t.Category, t.Difficulty)
			if p.verbose && t.Description != "" {
				p.printf("     %s\n", t.Description)
			}
		}
	}

	if len(log.Errors) > 0 {
		p.printf("\nErrors:\n")
		for _, e := range log.Errors {
			p.printf("  - %s\n", e)
		}
	}
	if out.Report != nil {
		p.printf("\nReport: %s\n", out.Report.Subject)
	}
}

// PrintStatus prints store statistics and the most recent records
func (p *Printer) PrintStatus(stats *core.Statistics, messages []core.StoredMessage, topics []core.Topic) {
	p.printf("\n=== Status ===\n")
	p.printf("Total messages: %d\n", stats.TotalMessages)
	p.printf("Categorized messages: %d\n", stats.CategorizedMessages)
	p.printf("Topics generated: %d\n", stats.TopicsGenerated)
	if stats.LastScan != nil {
		p.printf("Last scan: %s (%s, %d topics)\n",
			stats.LastScan.StartedAt.Format(time.RFC3339), stats.LastScan.Status, stats.LastScan.TopicsGenerated)
	} else {
		p.printf("Last scan: never\n")
	}

	if len(messages) > 0 {
		p.printf("\nRecent messages:\n")
		for _, m := range messages {
			p.printf("  %s  %-13s %.2f  %s\n", m.ProcessedAt.Format("2006-01-02 15:04"), m.Category, m.Confidence, m.Subject)
		}
	}
	if len(topics) > 0 {
		p.printf("\nRecent topics:\n")
		for _, t := range topics {
			p.printf("  %s  %-13s %s\n", t.GeneratedAt.Format("2006-01-02 15:04"), t.Category, t.Title)
		}
	}
}
