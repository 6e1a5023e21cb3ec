package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

const (
	collectionMessages = "messages"
	collectionTopics   = "topics"
	collectionScans    = "scan_logs"
)

// MongoStore is a MongoDB implementation of the ResultStore interface
type MongoStore struct {
	client      *mongo.Client
	messages    *mongo.Collection
	topics      *mongo.Collection
	scans       *mongo.Collection
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

type messageDocument struct {
	ID          string    `bson:"id"`
	Subject     string    `bson:"subject"`
	From        string    `bson:"from"`
	To          string    `bson:"to"`
	Date        time.Time `bson:"date"`
	Category    string    `bson:"category"`
	Confidence  float64   `bson:"confidence"`
	ContentHash string    `bson:"content_hash"`
	Body        string    `bson:"body"`
	ProcessedAt time.Time `bson:"processed_at"`
}

type sourceDocument struct {
	MessageID      string    `bson:"message_id"`
	Subject        string    `bson:"subject"`
	From           string    `bson:"from"`
	Date           time.Time `bson:"date"`
	Category       string    `bson:"category"`
	RelevanceScore float64   `bson:"relevance_score"`
	QualityScore   float64   `bson:"quality_score"`
}

type topicDocument struct {
	ID          string           `bson:"id"`
	Title       string           `bson:"title"`
	Description string           `bson:"description"`
	Keywords    []string         `bson:"keywords"`
	Difficulty  string           `bson:"difficulty"`
	Category    string           `bson:"category"`
	Provider    string           `bson:"provider"`
	Status      string           `bson:"status"`
	Sources     []sourceDocument `bson:"sources"`
	GeneratedAt time.Time        `bson:"generated_at"`
}

type scanDocument struct {
	RunID       string    `bson:"run_id"`
	StartedAt   time.Time `bson:"started_at"`
	DurationMS  int64     `bson:"duration_ms"`
	Fetched     int       `bson:"fetched"`
	Categorized int       `bson:"categorized"`
	Eligible    int       `bson:"eligible"`
	Topics      int       `bson:"topics"`
	Status      string    `bson:"status"`
	Errors      []string  `bson:"errors,omitempty"`
}

// NewMongoStore connects to MongoDB, ensures the indexes and starts the
// retention task
func NewMongoStore(uri, database string, retention, cleanupFreq time.Duration, logger *zap.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetMaxConnIdleTime(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:      client,
		messages:    db.Collection(collectionMessages),
		topics:      db.Collection(collectionTopics),
		scans:       db.Collection(collectionScans),
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	if retention > 0 && cleanupFreq > 0 {
		go s.startCleanupTask()
	}

	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.messages: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "processed_at", Value: -1}}},
		},
		s.topics: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "generated_at", Value: -1}}},
		},
		s.scans: {
			{Keys: bson.D{{Key: "started_at", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoStore) SaveCategorization(ctx context.Context, msg core.StoredMessage) error {
	_, err := s.messages.ReplaceOne(ctx, bson.M{"id": msg.ID}, toMessageDocument(msg),
		options.Replace().SetUpsert(true))
	if err != nil {
		return core.WrapError(core.ErrStore, "save categorization", err)
	}
	return nil
}

func (s *MongoStore) SaveTopics(ctx context.Context, topics []core.Topic) error {
	for _, t := range topics {
		_, err := s.topics.ReplaceOne(ctx, bson.M{"id": t.ID}, toTopicDocument(t),
			options.Replace().SetUpsert(true))
		if err != nil {
			return core.WrapError(core.ErrStore, "save topics", err)
		}
	}
	return nil
}

func (s *MongoStore) LogScan(ctx context.Context, log core.ScanLog) error {
	if _, err := s.scans.InsertOne(ctx, toScanDocument(log)); err != nil {
		return core.WrapError(core.ErrStore, "log scan", err)
	}
	return nil
}

func (s *MongoStore) Statistics(ctx context.Context) (*core.Statistics, error) {
	total, err := s.messages.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, core.WrapError(core.ErrStore, "statistics", err)
	}
	categorized, err := s.messages.CountDocuments(ctx, bson.M{"category": bson.M{"$ne": string(core.CategoryExcluded)}})
	if err != nil {
		return nil, core.WrapError(core.ErrStore, "statistics", err)
	}
	topics, err := s.topics.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, core.WrapError(core.ErrStore, "statistics", err)
	}

	stats := &core.Statistics{
		TotalMessages:       int(total),
		CategorizedMessages: int(categorized),
		TopicsGenerated:     int(topics),
	}

	var doc scanDocument
	err = s.scans.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}})).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
	case err != nil:
		return nil, core.WrapError(core.ErrStore, "statistics", err)
	default:
		last := fromScanDocument(doc)
		stats.LastScan = &last
	}
	return stats, nil
}

func (s *MongoStore) RecentMessages(ctx context.Context, limit int) ([]core.StoredMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "processed_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.messages.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, core.WrapError(core.ErrStore, "recent messages", err)
	}
	defer cursor.Close(ctx)

	var docs []messageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.WrapError(core.ErrStore, "recent messages", err)
	}

	out := make([]core.StoredMessage, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromMessageDocument(d))
	}
	return out, nil
}

func (s *MongoStore) RecentTopics(ctx context.Context, limit int) ([]core.Topic, error) {
	opts := options.Find().SetSort(bson.D{{Key: "generated_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.topics.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, core.WrapError(core.ErrStore, "recent topics", err)
	}
	defer cursor.Close(ctx)

	var docs []topicDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.WrapError(core.ErrStore, "recent topics", err)
	}

	out := make([]core.Topic, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromTopicDocument(d))
	}
	return out, nil
}

func (s *MongoStore) Cleanup(ctx context.Context, before time.Time) error {
	deletes := []struct {
		coll  *mongo.Collection
		field string
	}{
		{s.messages, "processed_at"},
		{s.topics, "generated_at"},
		{s.scans, "started_at"},
	}
	for _, d := range deletes {
		res, err := d.coll.DeleteMany(ctx, bson.M{d.field: bson.M{"$lt": before}})
		if err != nil {
			return core.WrapError(core.ErrStore, "cleanup "+d.coll.Name(), err)
		}
		if res.DeletedCount > 0 {
			s.logger.Debug("Removed expired documents",
				zap.String("collection", d.coll.Name()),
				zap.Int64("count", res.DeletedCount))
		}
	}
	return nil
}

func (s *MongoStore) startCleanupTask() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Cleanup(context.Background(), time.Now().Add(-s.retention)); err != nil {
				s.logger.Error("Failed to clean up result store", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and disconnects the client
func (s *MongoStore) Stop() {
	close(s.stopCh)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		s.logger.Error("Failed to disconnect from MongoDB", zap.Error(err))
	}
}

func toMessageDocument(m core.StoredMessage) messageDocument {
	return messageDocument{
		ID:          m.ID,
		Subject:     m.Subject,
		From:        m.From,
		To:          m.To,
		Date:        m.Date.UTC(),
		Category:    string(m.Category),
		Confidence:  m.Confidence,
		ContentHash: m.ContentHash,
		Body:        m.Body,
		ProcessedAt: m.ProcessedAt.UTC(),
	}
}

func fromMessageDocument(d messageDocument) core.StoredMessage {
	return core.StoredMessage{
		ID:          d.ID,
		Subject:     d.Subject,
		From:        d.From,
		To:          d.To,
		Date:        d.Date,
		Category:    core.Category(d.Category),
		Confidence:  d.Confidence,
		ContentHash: d.ContentHash,
		Body:        d.Body,
		ProcessedAt: d.ProcessedAt,
	}
}

func toTopicDocument(t core.Topic) topicDocument {
	doc := topicDocument{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Keywords:    t.Keywords,
		Difficulty:  t.Difficulty,
		Category:    string(t.Category),
		Provider:    t.Provider,
		Status:      t.Status,
		GeneratedAt: t.GeneratedAt.UTC(),
	}
	for _, src := range t.SourceMessages {
		doc.Sources = append(doc.Sources, sourceDocument{
			MessageID:      src.MessageID,
			Subject:        src.Subject,
			From:           src.From,
			Date:           src.Date.UTC(),
			Category:       string(src.Category),
			RelevanceScore: src.RelevanceScore,
			QualityScore:   src.QualityScore,
		})
	}
	return doc
}

func fromTopicDocument(d topicDocument) core.Topic {
	t := core.Topic{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Keywords:    d.Keywords,
		Difficulty:  d.Difficulty,
		Category:    core.Category(d.Category),
		Provider:    d.Provider,
		Status:      d.Status,
		GeneratedAt: d.GeneratedAt,
	}
	for _, src := range d.Sources {
		t.SourceMessages = append(t.SourceMessages, core.TopicSource{
			MessageID:      src.MessageID,
			Subject:        src.Subject,
			From:           src.From,
			Date:           src.Date,
			Category:       core.Category(src.Category),
			RelevanceScore: src.RelevanceScore,
			QualityScore:   src.QualityScore,
		})
	}
	return t
}

func toScanDocument(l core.ScanLog) scanDocument {
	return scanDocument{
		RunID:       l.RunID,
		StartedAt:   l.StartedAt.UTC(),
		DurationMS:  l.Duration.Milliseconds(),
		Fetched:     l.MessagesFetched,
		Categorized: l.MessagesCategorized,
		Eligible:    l.Eligible,
		Topics:      l.TopicsGenerated,
		Status:      l.Status,
		Errors:      l.Errors,
	}
}

func fromScanDocument(d scanDocument) core.ScanLog {
	return core.ScanLog{
		RunID:               d.RunID,
		StartedAt:           d.StartedAt,
		Duration:            time.Duration(d.DurationMS) * time.Millisecond,
		MessagesFetched:     d.Fetched,
		MessagesCategorized: d.Categorized,
		Eligible:            d.Eligible,
		TopicsGenerated:     d.Topics,
		Status:              d.Status,
		Errors:              d.Errors,
	}
}
