// Package report renders the per-scan summary email.
package report

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

// SubjectPrefix starts every report subject; the scan date follows it
const SubjectPrefix = "Email Scanner Summary Report - "

// Renderer writes the report as Markdown and converts it to HTML. Raw HTML
// in message subjects is not passed through.
type Renderer struct {
	md    goldmark.Markdown
	title cases.Caser
}

// NewRenderer creates a report renderer
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Table,
			),
		),
		title: cases.Title(language.English),
	}
}

// Subject returns the mail subject for the report date
func Subject(r core.Report) string {
	return SubjectPrefix + r.Date.Format("2006-01-02")
}

// Render builds the Markdown body and its HTML rendering
func (r *Renderer) Render(rep core.Report) (*core.RenderedReport, error) {
	markdown := r.markdown(rep)

	var buf bytes.Buffer
	buf.WriteString("<html><body>\n")
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	buf.WriteString("</body></html>\n")

	return &core.RenderedReport{
		Subject:  Subject(rep),
		Markdown: markdown,
		HTML:     buf.String(),
	}, nil
}

func (r *Renderer) markdown(rep core.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Email Scanner Summary Report\n\n")
	fmt.Fprintf(&b, "**Date:** %s  \n", rep.Date.Format("2006-01-02 15:04 MST"))
	if rep.RunID != "" {
		fmt.Fprintf(&b, "**Run:** %s\n", rep.RunID)
	}
	b.WriteString("\n## Statistics\n\n")
	fmt.Fprintf(&b, "- Total emails scanned: %d\n", rep.Fetched)
	fmt.Fprintf(&b, "- Emails categorized: %d\n", rep.Stats.Total)
	fmt.Fprintf(&b, "- Eligible for topic generation: %d\n", len(rep.Eligible))
	fmt.Fprintf(&b, "- Topics generated: %d\n", len(rep.Topics))
	fmt.Fprintf(&b, "- Errors: %d\n", len(rep.Errors))

	if rep.Stats.Total > 0 {
		b.WriteString("\n## Categories\n\n")
		b.WriteString("| Category | Count | Share | Avg. confidence |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, cat := range core.CategoryOrder {
			cs, ok := rep.Stats.Categories[cat]
			if !ok || cs.Count == 0 {
				continue
			}
			fmt.Fprintf(&b, "| %s | %d | %.2f%% | %.3f |\n",
				r.title.String(string(cat)), cs.Count, cs.Percentage, cs.AvgConfidence)
		}
	}

	if len(rep.Eligible) > 0 {
		eligible := slices.Clone(rep.Eligible)
		slices.SortStableFunc(eligible, func(a, b core.EligibleMessage) int {
			return b.Priority - a.Priority
		})

		b.WriteString("\n## Eligible Messages\n\n")
		for _, e := range eligible {
			fmt.Fprintf(&b, "- **%s** from %s (%s, priority %d)\n",
				escape(orDefault(e.Message.Subject, "No subject")),
				escape(orDefault(e.Message.From, "Unknown sender")),
				r.title.String(string(e.Categorization.Category)),
				e.Priority)
		}
	}

	if len(rep.Topics) > 0 {
		b.WriteString("\n## Topic Suggestions\n")
		for _, t := range rep.Topics {
			fmt.Fprintf(&b, "\n### %s\n\n", escape(t.Title))
			meta := []string{r.title.String(string(t.Category))}
			if t.Difficulty != "" {
				meta = append(meta, t.Difficulty)
			}
			if t.Provider != "" {
				meta = append(meta, "via "+t.Provider)
			}
			fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " / "))
			if t.Description != "" {
				fmt.Fprintf(&b, "%s\n\n", escape(t.Description))
			}
			if len(t.Keywords) > 0 {
				quoted := make([]string, 0, len(t.Keywords))
				for _, kw := range t.Keywords {
					quoted = append(quoted, "`"+strings.ReplaceAll(kw, "`", "'")+"`")
				}
				fmt.Fprintf(&b, "Keywords: %s\n\n", strings.Join(quoted, ", "))
			}
			if n := len(t.SourceMessages); n > 0 {
				fmt.Fprintf(&b, "Based on %d message(s)\n", n)
			}
		}
	}

	if len(rep.Errors) > 0 {
		b.WriteString("\n## Errors\n\n")
		for _, e := range rep.Errors {
			fmt.Fprintf(&b, "- %s\n", escape(e))
		}
	}

	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`|`, `\|`,
	`<`, `\<`,
	`>`, `\>`,
	`#`, `\#`,
)

func escape(s string) string {
	return markdownEscaper.Replace(strings.Join(strings.Fields(s), " "))
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
