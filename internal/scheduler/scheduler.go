package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	cronv3 "github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

// Scanner runs one scan
type Scanner interface {
	RunScan(ctx context.Context) (*core.ScanOutcome, error)
}

var parser = cronv3.NewParser(
	cronv3.Second | cronv3.Minute | cronv3.Hour | cronv3.Dom | cronv3.Month | cronv3.Dow,
)

// Scheduler triggers scans at fixed times of day
type Scheduler struct {
	cron      *cronv3.Cron
	scanner   Scanner
	specs     []string
	schedules []cronv3.Schedule
	jobIDs    map[string]cronv3.EntryID
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// Specs converts the configured "HH:MM" times into cron specs with a seconds
// field, pinned to the configured timezone. Duplicate times collapse.
func Specs(cfg config.SchedulerConfig) ([]string, error) {
	tz := cfg.Timezone
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	seen := make(map[string]bool, len(cfg.ScanTimes))
	specs := make([]string, 0, len(cfg.ScanTimes))
	for _, t := range cfg.ScanTimes {
		hour, minute, err := config.ParseScanTime(t)
		if err != nil {
			return nil, err
		}
		spec := fmt.Sprintf("CRON_TZ=%s 0 %d %d * * *", tz, minute, hour)
		if seen[spec] {
			continue
		}
		seen[spec] = true
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no scan times configured")
	}
	return specs, nil
}

// New creates a scheduler and registers one job per scan time. The scheduler
// does not run until Start is called.
func New(cfg config.SchedulerConfig, scanner Scanner, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	specs, err := Specs(cfg)
	if err != nil {
		return nil, core.WrapError(core.ErrInvalidConfig, "scheduler", err)
	}

	cronLogger := &zapLogger{logger: logger.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cronv3.New(
			cronv3.WithParser(parser),
			cronv3.WithChain(
				cronv3.SkipIfStillRunning(cronLogger),
				cronv3.Recover(cronLogger),
			),
			cronv3.WithLogger(cronLogger),
		),
		scanner: scanner,
		specs:   specs,
		jobIDs:  make(map[string]cronv3.EntryID, len(specs)),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	for _, spec := range specs {
		schedule, err := parser.Parse(spec)
		if err != nil {
			cancel()
			return nil, core.WrapError(core.ErrInvalidConfig, "scheduler", err)
		}
		id, err := s.cron.AddFunc(spec, s.runScan)
		if err != nil {
			cancel()
			return nil, core.WrapError(core.ErrInvalidConfig, "scheduler", err)
		}
		s.schedules = append(s.schedules, schedule)
		s.jobIDs[spec] = id
		logger.Info("Registered scan job", zap.String("schedule", spec))
	}

	return s, nil
}

// Specs returns the registered cron specs
func (s *Scheduler) Specs() []string {
	return s.specs
}

// NextRun returns the first scan time strictly after t
func (s *Scheduler) NextRun(t time.Time) time.Time {
	var next time.Time
	for _, schedule := range s.schedules {
		n := schedule.Next(t)
		if next.IsZero() || n.Before(next) {
			next = n
		}
	}
	return next
}

// Start runs the cron loop in the background
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler",
		zap.Strings("schedules", s.specs),
		zap.Time("next_run", s.NextRun(time.Now())))
	s.cron.Start()
}

// Stop cancels a running scan and waits for jobs to finish
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		s.logger.Info("Stopping scheduler")
		s.cancel()
		<-s.cron.Stop().Done()
	})
}

func (s *Scheduler) runScan() {
	if s.ctx.Err() != nil {
		return
	}
	out, err := s.scanner.RunScan(s.ctx)
	if err != nil {
		s.logger.Error("Scheduled scan failed", zap.Error(err))
		return
	}
	s.logger.Info("Scheduled scan completed",
		zap.String("run_id", out.Log.RunID),
		zap.String("status", out.Log.Status),
		zap.Int("topics", out.Log.TopicsGenerated),
		zap.Time("next_run", s.NextRun(time.Now())))
}

// zapLogger adapts zap to cron.Logger
type zapLogger struct {
	logger *zap.SugaredLogger
}

func (l *zapLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *zapLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
