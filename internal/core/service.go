package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScanOptions are the per-run settings of the scan service
type ScanOptions struct {
	Folder        string
	MaxMessages   int
	DaysBack      int
	UnreadOnly    bool
	MaxTopics     int
	ReportEnabled bool
	ReportFrom    string
	ReportTo      []string
}

// ScanOutcome is everything one scan produced
type ScanOutcome struct {
	Log     ScanLog
	Batch   BatchResult
	Topics  []Topic
	Skipped int
	Report  *RenderedReport
}

// ScanService runs one complete scan: fetch, categorize and analyze, generate
// topics per category, persist and report
type ScanService struct {
	source    MailSource
	processor BatchProcessor
	generator TopicGenerator
	store     ResultStore
	seen      SeenIndex
	renderer  ReportRenderer
	sender    ReportSender
	metrics   ScanMetrics
	opts      ScanOptions
	logger    *zap.Logger
	now       func() time.Time
}

// NewScanService creates a new scan service. seen, renderer, sender and
// metrics may be nil.
func NewScanService(
	source MailSource,
	processor BatchProcessor,
	generator TopicGenerator,
	store ResultStore,
	seen SeenIndex,
	renderer ReportRenderer,
	sender ReportSender,
	metrics ScanMetrics,
	opts ScanOptions,
	logger *zap.Logger,
) *ScanService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanService{
		source:    source,
		processor: processor,
		generator: generator,
		store:     store,
		seen:      seen,
		renderer:  renderer,
		sender:    sender,
		metrics:   metrics,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// RunScan performs one scan. Only a failed fetch aborts the run and returns
// an error; later failures are recorded in the scan log and mark it partial.
func (s *ScanService) RunScan(ctx context.Context) (*ScanOutcome, error) {
	started := s.now()
	out := &ScanOutcome{
		Log: ScanLog{RunID: uuid.NewString(), StartedAt: started},
	}
	logger := s.logger.With(zap.String("run_id", out.Log.RunID))

	s.metrics.StartScan()
	logger.Info("Starting scan",
		zap.String("folder", s.opts.Folder),
		zap.Int("limit", s.opts.MaxMessages),
		zap.Int("days_back", s.opts.DaysBack))

	query := FetchQuery{
		Folder:     s.opts.Folder,
		Limit:      s.opts.MaxMessages,
		UnreadOnly: s.opts.UnreadOnly,
	}
	if s.opts.DaysBack > 0 {
		query.Since = started.AddDate(0, 0, -s.opts.DaysBack)
	}

	messages, err := s.source.Fetch(ctx, query)
	if err != nil {
		logger.Error("Failed to fetch messages", zap.Error(err))
		out.Log.Errors = append(out.Log.Errors, fmt.Sprintf("fetch: %v", err))
		s.finish(ctx, logger, out, ScanStatusFailed)
		return out, WrapError(ErrSourceUnavailable, "fetch messages", err)
	}
	out.Log.MessagesFetched = len(messages)

	out.Batch = s.processor.Run(messages)
	out.Log.MessagesCategorized = out.Batch.Stats.Total - out.Batch.Stats.Categories[CategoryExcluded].Count
	out.Log.Eligible = len(out.Batch.Eligible)
	s.metrics.ObserveBatch(out.Batch.Stats, len(out.Batch.Eligible), out.Batch.Duplicates)

	logger.Info("Batch processed",
		zap.Int("fetched", len(messages)),
		zap.Int("eligible", len(out.Batch.Eligible)),
		zap.Int("duplicates", out.Batch.Duplicates))

	s.persistCategorizations(ctx, logger, out)

	pending, skipped := s.filterSeen(ctx, logger, out.Batch.Eligible)
	out.Skipped = skipped

	s.generate(ctx, logger, out, pending)
	out.Log.TopicsGenerated = len(out.Topics)

	if len(out.Topics) > 0 {
		if err := s.store.SaveTopics(ctx, out.Topics); err != nil {
			logger.Error("Failed to save topics", zap.Error(err))
			out.Log.Errors = append(out.Log.Errors, fmt.Sprintf("save topics: %v", err))
		}
	}

	s.report(ctx, logger, out)

	status := ScanStatusSuccess
	if len(out.Log.Errors) > 0 {
		status = ScanStatusPartial
	}
	s.finish(ctx, logger, out, status)
	return out, nil
}

func (s *ScanService) persistCategorizations(ctx context.Context, logger *zap.Logger, out *ScanOutcome) {
	hashes := make(map[string]string, len(out.Batch.Eligible))
	for _, e := range out.Batch.Eligible {
		hashes[e.Message.ID] = e.Analysis.ContentHash
	}

	processed := s.now()
	failures := 0
	for _, cat := range CategoryOrder {
		for _, rec := range out.Batch.Buckets[cat] {
			msg := StoredMessage{
				ID:          rec.Message.ID,
				Subject:     rec.Message.Subject,
				From:        rec.Message.From,
				Date:        rec.Message.Date,
				Category:    rec.Result.Category,
				Confidence:  rec.Result.Confidence,
				ContentHash: hashes[rec.Message.ID],
				Body:        rec.Message.Body,
				ProcessedAt: processed,
			}
			if len(rec.Message.To) > 0 {
				msg.To = rec.Message.To[0]
			}
			if err := s.store.SaveCategorization(ctx, msg); err != nil {
				failures++
				logger.Warn("Failed to save categorization", zap.String("message_id", msg.ID), zap.Error(err))
			}
		}
	}
	if failures > 0 {
		out.Log.Errors = append(out.Log.Errors, fmt.Sprintf("save categorizations: %d failed", failures))
	}
}

// filterSeen drops eligible messages whose body already produced topics in
// an earlier run
func (s *ScanService) filterSeen(ctx context.Context, logger *zap.Logger, eligible []EligibleMessage) ([]EligibleMessage, int) {
	if s.seen == nil {
		return eligible, 0
	}

	pending := make([]EligibleMessage, 0, len(eligible))
	skipped := 0
	for _, e := range eligible {
		seen, err := s.seen.Seen(ctx, e.Analysis.ContentHash)
		if err != nil {
			logger.Warn("Dedupe lookup failed, keeping message", zap.String("message_id", e.Message.ID), zap.Error(err))
		}
		if seen {
			skipped++
			continue
		}
		pending = append(pending, e)
	}
	if skipped > 0 {
		logger.Info("Skipped messages seen in earlier scans", zap.Int("count", skipped))
	}
	return pending, skipped
}

// generate calls the generator once per in-scope category, in bucket order,
// until the topic cap is reached
func (s *ScanService) generate(ctx context.Context, logger *zap.Logger, out *ScanOutcome, pending []EligibleMessage) {
	if s.generator == nil || len(pending) == 0 {
		return
	}

	groups := make(map[Category][]EligibleMessage)
	for _, e := range pending {
		groups[e.Categorization.Category] = append(groups[e.Categorization.Category], e)
	}

	for _, cat := range CategoryOrder {
		group := groups[cat]
		if len(group) == 0 {
			continue
		}
		if s.opts.MaxTopics > 0 && len(out.Topics) >= s.opts.MaxTopics {
			logger.Info("Topic cap reached", zap.Int("max_topics", s.opts.MaxTopics))
			return
		}
		if err := ctx.Err(); err != nil {
			out.Log.Errors = append(out.Log.Errors, fmt.Sprintf("%s: %v", cat, err))
			return
		}

		topics, err := s.generator.GenerateTopics(ctx, TopicRequest{Category: cat, Messages: group})
		s.metrics.ObserveTopics(cat, len(topics), err)
		if err != nil {
			logger.Error("Topic generation failed", zap.String("category", string(cat)), zap.Error(err))
			out.Log.Errors = append(out.Log.Errors, fmt.Sprintf("%s: %v", cat, err))
			continue
		}

		if s.opts.MaxTopics > 0 {
			if room := s.opts.MaxTopics - len(out.Topics); len(topics) > room {
				topics = topics[:room]
			}
		}
		out.Topics = append(out.Topics, topics...)

		if s.seen != nil {
			for _, e := range group {
				if err := s.seen.Mark(ctx, e.Analysis.ContentHash); err != nil {
					logger.Warn("Failed to mark message as seen", zap.String("message_id", e.Message.ID), zap.Error(err))
				}
			}
		}
	}
}

func (s *ScanService) report(ctx context.Context, logger *zap.Logger, out *ScanOutcome) {
	if !s.opts.ReportEnabled || s.renderer == nil {
		return
	}

	rendered, err := s.renderer.Render(Report{
		RunID:    out.Log.RunID,
		Date:     out.Log.StartedAt,
		Fetched:  out.Log.MessagesFetched,
		Stats:    out.Batch.Stats,
		Eligible: out.Batch.Eligible,
		Topics:   out.Topics,
		Errors:   out.Log.Errors,
	})
	if err != nil {
		logger.Error("Failed to render report", zap.Error(err))
		out.Log.Errors = append(out.Log.Errors, fmt.Sprintf("render report: %v", err))
		return
	}
	out.Report = rendered

	if s.sender == nil || len(s.opts.ReportTo) == 0 {
		return
	}
	err = s.sender.Send(ctx, OutgoingReport{
		From:    s.opts.ReportFrom,
		To:      s.opts.ReportTo,
		Subject: rendered.Subject,
		Text:    rendered.Markdown,
		HTML:    rendered.HTML,
	})
	if err != nil {
		logger.Error("Failed to send report", zap.Error(err))
		out.Log.Errors = append(out.Log.Errors, fmt.Sprintf("send report: %v", err))
		return
	}
	logger.Info("Report sent", zap.Strings("to", s.opts.ReportTo))
}

func (s *ScanService) finish(ctx context.Context, logger *zap.Logger, out *ScanOutcome, status string) {
	out.Log.Status = status
	out.Log.Duration = s.now().Sub(out.Log.StartedAt)

	// the run's own context may be cancelled; the log still has to land
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.store.LogScan(logCtx, out.Log); err != nil {
		logger.Error("Failed to record scan log", zap.Error(err))
	}

	s.metrics.FinishScan(status, out.Log.Duration)
	logger.Info("Scan finished",
		zap.String("status", status),
		zap.Duration("duration", out.Log.Duration),
		zap.Int("topics", out.Log.TopicsGenerated),
		zap.Int("errors", len(out.Log.Errors)))
}

type nopMetrics struct{}

func (nopMetrics) StartScan()                         {}
func (nopMetrics) FinishScan(string, time.Duration)   {}
func (nopMetrics) ObserveBatch(BatchStats, int, int)  {}
func (nopMetrics) ObserveTopics(Category, int, error) {}
