package analyzer

import (
	"fmt"

	"github.com/mikey/mail-topic-scanner/internal/core"
	"github.com/mikey/mail-topic-scanner/internal/rules"
)

const minFleschScore = 30

var typePriority = map[core.ContentType]int{
	core.ContentArticle:      5,
	core.ContentNewsletter:   4,
	core.ContentEducational:  3,
	core.ContentGeneral:      2,
	core.ContentNotification: 1,
	core.ContentPromotional:  0,
}

var sentimentPriority = map[core.Sentiment]int{
	core.SentimentPositive: 1,
	core.SentimentNeutral:  0,
	core.SentimentNegative: -1,
}

// ShouldProcess reports whether an analyzed message is suitable for topic
// generation. Every condition must hold.
func (a *Analyzer) ShouldProcess(analysis core.ContentAnalysis) bool {
	if analysis.Err != nil {
		return false
	}
	if analysis.WordCount < a.minWords {
		return false
	}
	if analysis.ContentType == core.ContentNotification || analysis.ContentType == core.ContentPromotional {
		return false
	}
	if analysis.Sentiment == core.SentimentNegative {
		return false
	}
	return analysis.Readability.FleschReadingEase >= minFleschScore
}

// Priority is an ordering hint for downstream consumers, higher first
func Priority(analysis core.ContentAnalysis) int {
	priority := typePriority[analysis.ContentType]

	if analysis.LanguageStyle[rules.StyleTechnical] > 0.3 {
		priority += 3
	}
	if analysis.LanguageStyle[rules.StyleEducational] > 0.3 {
		priority += 2
	}

	switch {
	case analysis.WordCount >= 100 && analysis.WordCount <= 1000:
		priority += 2
	case analysis.WordCount > 1000:
		priority++
	}

	return priority + sentimentPriority[analysis.Sentiment]
}

// Summary is a one-line description of an analyzed message
func Summary(msg core.Message, analysis core.ContentAnalysis) string {
	subject := msg.Subject
	if subject == "" {
		subject = "No subject"
	}
	from := msg.From
	if from == "" {
		from = "Unknown sender"
	}
	contentType := analysis.ContentType
	if contentType == "" {
		contentType = core.ContentGeneral
	}
	sentiment := analysis.Sentiment
	if sentiment == "" {
		sentiment = core.SentimentNeutral
	}
	return fmt.Sprintf("Email from %s: '%s' (%d words, %s content, %s sentiment)",
		from, subject, analysis.WordCount, contentType, sentiment)
}
