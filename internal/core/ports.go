package core

import (
	"context"
	"time"
)

// FetchQuery selects the messages a mail source returns
type FetchQuery struct {
	Folder     string
	Limit      int
	Since      time.Time
	UnreadOnly bool
}

// MailSource supplies messages for a scan
type MailSource interface {
	// Fetch returns at most query.Limit messages received after query.Since
	Fetch(ctx context.Context, query FetchQuery) ([]Message, error)
}

// TopicRequest is one generator call: the eligible messages of a category
type TopicRequest struct {
	Category Category
	Messages []EligibleMessage
}

// TopicGenerator turns eligible messages into blog topic suggestions
type TopicGenerator interface {
	GenerateTopics(ctx context.Context, req TopicRequest) ([]Topic, error)
}

// ResultStore persists scan results
type ResultStore interface {
	// SaveCategorization stores or replaces a categorized message
	SaveCategorization(ctx context.Context, msg StoredMessage) error

	// SaveTopics stores generated topics
	SaveTopics(ctx context.Context, topics []Topic) error

	// LogScan records a scan run
	LogScan(ctx context.Context, log ScanLog) error

	// Statistics summarizes the store
	Statistics(ctx context.Context) (*Statistics, error)

	// RecentMessages returns the last processed messages, newest first
	RecentMessages(ctx context.Context, limit int) ([]StoredMessage, error)

	// RecentTopics returns the last generated topics, newest first
	RecentTopics(ctx context.Context, limit int) ([]Topic, error)

	// Cleanup removes rows older than before
	Cleanup(ctx context.Context, before time.Time) error
}

// SeenIndex remembers content hashes already used for topic generation
type SeenIndex interface {
	Seen(ctx context.Context, hash string) (bool, error)
	Mark(ctx context.Context, hash string) error
}

// ReportRenderer formats a report
type ReportRenderer interface {
	Render(report Report) (*RenderedReport, error)
}

// ReportSender delivers a rendered report
type ReportSender interface {
	Send(ctx context.Context, report OutgoingReport) error
}

// ScanMetrics receives scan observations
type ScanMetrics interface {
	StartScan()
	FinishScan(status string, duration time.Duration)
	ObserveBatch(stats BatchStats, eligible int, duplicates int)
	ObserveTopics(category Category, count int, err error)
}

// BatchProcessor categorizes and analyzes one batch of messages
type BatchProcessor interface {
	Run(messages []Message) BatchResult
}
