// Package topics builds topic generation prompts and parses model responses.
// Provider adapters only implement Completer; everything else is shared.
package topics

import (
	"fmt"
	"strings"

	"github.com/mikey/mail-topic-scanner/internal/core"
	"github.com/mikey/mail-topic-scanner/internal/utils"
)

// DefaultBodyChars is how much of each body goes into a prompt
const DefaultBodyChars = 500

// SystemPrompt is sent as the system message where the provider supports one
const SystemPrompt = "You are a helpful assistant that generates blog topics from email content."

const promptFormat = `Based on the following email content from the %[1]s category, generate 3-5 relevant blog topics.

Email Content:
%[2]s

Please generate topics that are:
1. Relevant to the content provided
2. Engaging and interesting for readers
3. Specific and actionable
4. Suitable for a tech/professional blog

For each topic, provide:
- Title: A catchy, SEO-friendly title
- Description: A brief description of what the post would cover
- Keywords: 3-5 relevant keywords
- Difficulty: Beginner, Intermediate, or Advanced

Format your response as JSON:
{
  "topics": [
    {
      "title": "Topic Title",
      "description": "Topic description",
      "keywords": ["keyword1", "keyword2", "keyword3"],
      "difficulty": "Beginner|Intermediate|Advanced",
      "category": "%[1]s"
    }
  ]
}

Only return valid JSON, no additional text.`

// PromptBuilder renders the prompt for one category
type PromptBuilder struct {
	text      *utils.TextProcessor
	bodyChars int
}

// NewPromptBuilder creates a new prompt builder. A non-positive bodyChars
// selects DefaultBodyChars.
func NewPromptBuilder(text *utils.TextProcessor, bodyChars int) *PromptBuilder {
	if bodyChars <= 0 {
		bodyChars = DefaultBodyChars
	}
	return &PromptBuilder{text: text, bodyChars: bodyChars}
}

// ContentSummary lists sender, subject and truncated body of each message
func (b *PromptBuilder) ContentSummary(messages []core.EligibleMessage) string {
	var sb strings.Builder
	for i, m := range messages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "From: %s\nSubject: %s\nContent: %s\n---",
			m.Message.From,
			m.Message.Subject,
			b.text.ProcessText(m.Message.Body, b.bodyChars))
	}
	return sb.String()
}

// Build renders the full prompt for a request
func (b *PromptBuilder) Build(req core.TopicRequest) string {
	return fmt.Sprintf(promptFormat, req.Category, b.ContentSummary(req.Messages))
}

// Sources describes the messages a request was built from
func Sources(req core.TopicRequest) []core.TopicSource {
	sources := make([]core.TopicSource, 0, len(req.Messages))
	for _, m := range req.Messages {
		sources = append(sources, core.TopicSource{
			MessageID:      m.Message.ID,
			Subject:        m.Message.Subject,
			From:           m.Message.From,
			Date:           m.Message.Date,
			Category:       m.Categorization.Category,
			RelevanceScore: m.Relevance.RelevanceScore,
			QualityScore:   m.Relevance.QualityScore,
		})
	}
	return sources
}
