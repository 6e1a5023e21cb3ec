package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/core"
	"github.com/mikey/mail-topic-scanner/internal/rules"
)

func newAnalyzer() *Analyzer {
	return New(rules.Default(), Options{}, zap.NewNop())
}

func TestAnalyzeEmptyBody(t *testing.T) {
	a := newAnalyzer()
	got := a.Analyze(core.Message{ID: "empty"})

	assert.Equal(t, core.Readability{}, got.Readability)
	assert.Equal(t, 0, got.WordCount)
	assert.Empty(t, got.KeyTopics)
	assert.Equal(t, core.ContentGeneral, got.ContentType)
	assert.Equal(t, core.SentimentNeutral, got.Sentiment)
	assert.False(t, a.ShouldProcess(got))
}

func TestAnalyzeMessage(t *testing.T) {
	a := newAnalyzer()
	msg := core.Message{
		ID:          "1",
		Subject:     "New blog post",
		Body:        "Read the article at https://example.com/a and https://example.org/b?x=1 café",
		Attachments: []core.Attachment{{Filename: "a.pdf"}},
	}

	got := a.Analyze(msg)

	require.NoError(t, got.Err)
	assert.Equal(t, core.ContentArticle, got.ContentType)
	assert.Equal(t, []string{"https://example.com/a", "https://example.org/b?x=1"}, got.Links)
	assert.True(t, got.HasAttachments)
	assert.Equal(t, len([]rune(msg.Body)), got.CharacterCount)
	assert.Equal(t, ContentHash(msg.Body), got.ContentHash)
	assert.False(t, got.AnalyzedAt.IsZero())
}

func TestContentType(t *testing.T) {
	a := newAnalyzer()
	tests := []struct {
		text string
		want core.ContentType
	}{
		{"weekly newsletter digest", core.ContentNewsletter},
		{"update", core.ContentArticle},
		{"security alert: password reminder", core.ContentNotification},
		{"special discount sale", core.ContentPromotional},
		{"nothing to see", core.ContentGeneral},
		{"weblogging", core.ContentGeneral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.contentType(tt.text), tt.text)
	}
}

func TestLanguageStyle(t *testing.T) {
	got := newAnalyzer().languageStyle("the api talks to the database server")

	assert.InDelta(t, 3.0/16.0, got[rules.StyleTechnical], 1e-9)
	assert.Equal(t, 0.0, got[rules.StyleBusiness])
	assert.Contains(t, got, rules.StyleEducational)
	for _, v := range got {
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestSentiment(t *testing.T) {
	a := newAnalyzer()
	assert.Equal(t, core.SentimentPositive, a.sentiment("a great release"))
	assert.Equal(t, core.SentimentNegative, a.sentiment("an error and a problem"))
	assert.Equal(t, core.SentimentNeutral, a.sentiment("great news, one problem"))
	assert.Equal(t, core.SentimentNeutral, a.sentiment(""))
}

func TestReadability(t *testing.T) {
	tests := []struct {
		name string
		body string
		want core.Readability
	}{
		{"empty", "", core.Readability{}},
		{"punctuation only", "...!?", core.Readability{}},
		{"short words clamp to 100", "The cat sat. The dog ran!", core.Readability{FleschReadingEase: 100, AvgSentenceLength: 3}},
		{"trailing fragment ignored", "Go now.", core.Readability{FleschReadingEase: 100, AvgSentenceLength: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Readability(tt.body))
		})
	}
}

func TestReadabilitySentenceCount(t *testing.T) {
	tests := []struct {
		body    string
		wantAvg float64
	}{
		{"Hello world.", 2},
		{"Hello world", 2},
		{"One two. Three four!", 2},
		{"Wait... what?! Yes", 1},
		{"One. . Two.", 1.5},
		{"  Spaced out sentence here.  ", 4},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.wantAvg, Readability(tt.body).AvgSentenceLength)
		})
	}
}

func TestReadabilityClampsLow(t *testing.T) {
	body := strings.TrimSpace(strings.Repeat("internationalization ", 40)) + "."
	got := Readability(body)

	assert.Equal(t, 0.0, got.FleschReadingEase)
	assert.Equal(t, 40.0, got.AvgSentenceLength)
}

func TestCountSyllables(t *testing.T) {
	assert.Equal(t, 0, countSyllables(""))
	assert.Equal(t, 1, countSyllables("queue"))
	assert.Equal(t, 3, countSyllables("Banana"))
	assert.Equal(t, 2, countSyllables("happy"))
}

func TestKeyTopics(t *testing.T) {
	a := newAnalyzer()

	got := a.keyTopics("kubernetes docker kubernetes golang docker kubernetes the and with")
	assert.Equal(t, []string{"kubernetes", "docker", "golang"}, got)

	got = a.keyTopics("alpha beta alpha beta gamma")
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, got)

	many := "one1 two2 three four five six6 seven eight nine tenn eleven twelve"
	assert.Len(t, a.keyTopics(many), 10)
}

func TestContentHash(t *testing.T) {
	a := ContentHash("same body")
	assert.Equal(t, a, ContentHash("same body"))
	assert.NotEqual(t, a, ContentHash("same body."))
	assert.Len(t, a, 48)
}

func passing() core.ContentAnalysis {
	return core.ContentAnalysis{
		WordCount:   60,
		ContentType: core.ContentArticle,
		Sentiment:   core.SentimentNeutral,
		Readability: core.Readability{FleschReadingEase: 50},
	}
}

func TestShouldProcessIsConjunction(t *testing.T) {
	a := newAnalyzer()
	require.True(t, a.ShouldProcess(passing()))

	flips := map[string]func(*core.ContentAnalysis){
		"too short":    func(c *core.ContentAnalysis) { c.WordCount = 49 },
		"notification": func(c *core.ContentAnalysis) { c.ContentType = core.ContentNotification },
		"promotional":  func(c *core.ContentAnalysis) { c.ContentType = core.ContentPromotional },
		"negative":     func(c *core.ContentAnalysis) { c.Sentiment = core.SentimentNegative },
		"hard to read": func(c *core.ContentAnalysis) { c.Readability.FleschReadingEase = 29.99 },
		"faulted":      func(c *core.ContentAnalysis) { c.Err = assert.AnError },
	}
	for name, flip := range flips {
		t.Run(name, func(t *testing.T) {
			c := passing()
			flip(&c)
			assert.False(t, a.ShouldProcess(c))
		})
	}
}

func TestShouldProcessCustomFloor(t *testing.T) {
	a := New(rules.Default(), Options{MinWords: 100}, nil)
	assert.Equal(t, 100, a.MinWords())
	assert.False(t, a.ShouldProcess(passing()))
}

func TestPriority(t *testing.T) {
	high := core.ContentAnalysis{
		ContentType: core.ContentArticle,
		LanguageStyle: map[string]float64{
			rules.StyleTechnical:   0.5,
			rules.StyleEducational: 0.5,
		},
		WordCount: 500,
		Sentiment: core.SentimentPositive,
	}
	assert.Equal(t, 13, Priority(high))

	low := core.ContentAnalysis{ContentType: core.ContentPromotional, WordCount: 10, Sentiment: core.SentimentNegative}
	assert.Equal(t, -1, Priority(low))

	long := core.ContentAnalysis{ContentType: core.ContentGeneral, WordCount: 1500, Sentiment: core.SentimentNeutral}
	assert.Equal(t, 3, Priority(long))
}

func TestSummary(t *testing.T) {
	msg := core.Message{From: "a@b.com", Subject: "Hi"}
	analysis := core.ContentAnalysis{WordCount: 12, ContentType: core.ContentArticle, Sentiment: core.SentimentPositive}

	assert.Equal(t, "Email from a@b.com: 'Hi' (12 words, article content, positive sentiment)", Summary(msg, analysis))
	assert.Equal(t, "Email from Unknown sender: 'No subject' (0 words, general content, neutral sentiment)",
		Summary(core.Message{}, core.ContentAnalysis{}))
}

func TestAnalyzeRecoversFault(t *testing.T) {
	a := &Analyzer{logger: zap.NewNop(), minWords: DefaultMinWords, now: newAnalyzer().now}
	got := a.Analyze(core.Message{ID: "x", Body: "some text"})

	assert.Error(t, got.Err)
	assert.False(t, a.ShouldProcess(got))
}
