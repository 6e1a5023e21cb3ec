package core

import (
	"time"
)

// Category is the bucket a message is assigned to
type Category string

const (
	CategoryTech         Category = "tech"
	CategoryNewsletter   Category = "newsletter"
	CategorySocial       Category = "social"
	CategoryProfessional Category = "professional"
	CategoryOther        Category = "other"
	CategoryExcluded     Category = "excluded"
	// CategoryError marks a message whose categorization faulted
	CategoryError Category = "error"
)

// CategoryOrder is the fixed order used for buckets and statistics
var CategoryOrder = []Category{
	CategoryTech,
	CategoryNewsletter,
	CategorySocial,
	CategoryProfessional,
	CategoryOther,
	CategoryExcluded,
}

// InScopeCategories are the buckets forwarded to content analysis
var InScopeCategories = []Category{
	CategoryTech,
	CategoryNewsletter,
	CategoryProfessional,
}

// IsInScope reports whether messages of the category go to topic generation
func (c Category) IsInScope() bool {
	for _, in := range InScopeCategories {
		if c == in {
			return true
		}
	}
	return false
}

// Attachment describes a file attached to a message
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
}

// Message represents a fetched email message
type Message struct {
	ID          string
	Subject     string
	From        string
	To          []string
	Body        string
	Date        time.Time
	Attachments []Attachment
	Headers     map[string][]string
}

// CategorizationResult is the outcome of categorizing one message
type CategorizationResult struct {
	Category   Category
	Confidence float64
	Reason     string
	Scores     map[Category]float64
	Err        error
}

// Failed reports whether categorization hit an internal fault
func (r CategorizationResult) Failed() bool {
	return r.Err != nil
}

// CategorizationRecord pairs a message with its categorization
type CategorizationRecord struct {
	Message Message
	Result  CategorizationResult
}

// ContentType classifies the shape of a message body
type ContentType string

const (
	ContentArticle      ContentType = "article"
	ContentNewsletter   ContentType = "newsletter"
	ContentNotification ContentType = "notification"
	ContentPromotional  ContentType = "promotional"
	ContentEducational  ContentType = "educational"
	ContentGeneral      ContentType = "general"
)

// Sentiment is the lexical tone of a message
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Readability holds the Flesch approximation for a body
type Readability struct {
	FleschReadingEase float64
	AvgSentenceLength float64
}

// ContentAnalysis is the secondary, category independent view of a message
type ContentAnalysis struct {
	ContentType    ContentType
	LanguageStyle  map[string]float64
	Sentiment      Sentiment
	Readability    Readability
	KeyTopics      []string
	Links          []string
	HasAttachments bool
	WordCount      int
	CharacterCount int
	ContentHash    string
	AnalyzedAt     time.Time
	Err            error
}

// RelevanceAssessment is the lighter relevance/quality scoring of a message
type RelevanceAssessment struct {
	SenderDomain    string
	SubjectKeywords []string
	BodyKeywords    []string
	HasLinks        bool
	RelevanceScore  float64
	QualityScore    float64
	Category        Category
	TopicPotential  bool
}

// EligibleMessage is a message that passed both gates of the pipeline
type EligibleMessage struct {
	Message        Message
	Categorization CategorizationResult
	Analysis       ContentAnalysis
	Relevance      RelevanceAssessment
	Priority       int
	Summary        string
}

// CategoryStats aggregates one bucket of a batch
type CategoryStats struct {
	Count         int
	Percentage    float64
	AvgConfidence float64
}

// BatchStats aggregates a whole batch
type BatchStats struct {
	Categories map[Category]CategoryStats
	Total      int
}

// BatchResult is everything a single pipeline pass produces
type BatchResult struct {
	Buckets    map[Category][]CategorizationRecord
	Eligible   []EligibleMessage
	Stats      BatchStats
	Duplicates int
}

// Difficulty tiers returned by the topic generator
const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

// TopicSource references a message a topic was generated from
type TopicSource struct {
	MessageID      string
	Subject        string
	From           string
	Date           time.Time
	Category       Category
	RelevanceScore float64
	QualityScore   float64
}

// Topic is a blog topic suggestion
type Topic struct {
	ID             string
	Title          string
	Description    string
	Keywords       []string
	Difficulty     string
	Category       Category
	Provider       string
	Status         string
	GeneratedAt    time.Time
	SourceMessages []TopicSource
}

// Scan statuses
const (
	ScanStatusSuccess = "success"
	ScanStatusPartial = "partial"
	ScanStatusFailed  = "failed"
)

// ScanLog records one scan run
type ScanLog struct {
	RunID               string
	StartedAt           time.Time
	Duration            time.Duration
	MessagesFetched     int
	MessagesCategorized int
	Eligible            int
	TopicsGenerated     int
	Status              string
	Errors              []string
}

// StoredMessage is the persisted view of a categorized message
type StoredMessage struct {
	ID          string
	Subject     string
	From        string
	To          string
	Date        time.Time
	Category    Category
	Confidence  float64
	ContentHash string
	Body        string
	ProcessedAt time.Time
}

// Statistics summarizes the result store
type Statistics struct {
	TotalMessages       int
	CategorizedMessages int
	TopicsGenerated     int
	LastScan            *ScanLog
}

// Report is the per-run summary sent by email
type Report struct {
	RunID    string
	Date     time.Time
	Fetched  int
	Stats    BatchStats
	Eligible []EligibleMessage
	Topics   []Topic
	Errors   []string
}

// RenderedReport is a report ready to send
type RenderedReport struct {
	Subject  string
	Markdown string
	HTML     string
}

// OutgoingReport is handed to a report sender
type OutgoingReport struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
}
