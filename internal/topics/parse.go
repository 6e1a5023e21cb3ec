package topics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/mikey/mail-topic-scanner/internal/core"
	"github.com/mikey/mail-topic-scanner/internal/utils"
)

// StatusPending is the status of a freshly generated topic
const StatusPending = "pending"

// ErrNoJSON is returned when a response holds no JSON object
var ErrNoJSON = errors.New("no JSON object in model response")

type responsePayload struct {
	Topics []topicPayload `json:"topics"`
}

type topicPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Difficulty  string   `json:"difficulty"`
	Category    string   `json:"category"`
}

// Parse decodes a model response into topics for the given request. Topics
// without a title are dropped.
func Parse(text string, provider string, req core.TopicRequest, now time.Time) ([]core.Topic, error) {
	var payload responsePayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err != nil {
		raw, ok := utils.ExtractJSONObject(text)
		if !ok {
			return nil, ErrNoJSON
		}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
		}
	}

	sources := Sources(req)
	topics := make([]core.Topic, 0, len(payload.Topics))
	for _, p := range payload.Topics {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			continue
		}
		category := req.Category
		if c := strings.ToLower(strings.TrimSpace(p.Category)); c != "" {
			category = core.Category(c)
		}
		topics = append(topics, core.Topic{
			ID:             uuid.NewString(),
			Title:          title,
			Description:    strings.TrimSpace(p.Description),
			Keywords:       p.Keywords,
			Difficulty:     normalizeDifficulty(p.Difficulty),
			Category:       category,
			Provider:       provider,
			Status:         StatusPending,
			GeneratedAt:    now,
			SourceMessages: sources,
		})
	}
	return topics, nil
}

func normalizeDifficulty(d string) string {
	for _, known := range []string{core.DifficultyBeginner, core.DifficultyIntermediate, core.DifficultyAdvanced} {
		if strings.EqualFold(strings.TrimSpace(d), known) {
			return known
		}
	}
	return strings.TrimSpace(d)
}
