// Package resilience wraps remote calls (mail fetches, model completions)
// in retries with exponential backoff and a per-operation circuit breaker.
package resilience

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

// Settings tunes an Executor
type Settings struct {
	RetryMaxAttempts        int
	RetryInitialBackoff     time.Duration
	RetryMaxBackoff         time.Duration
	RetryMultiplier         float64
	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

// SettingsFromConfig converts the resilience config section
func SettingsFromConfig(c config.ResilienceConfig) Settings {
	return Settings{
		RetryMaxAttempts:        c.RetryMaxAttempts,
		RetryInitialBackoff:     c.RetryInitialBackoff,
		RetryMaxBackoff:         c.RetryMaxBackoff,
		RetryMultiplier:         c.RetryMultiplier,
		BreakerEnabled:          c.BreakerEnabled,
		BreakerMinRequests:      c.BreakerMinRequests,
		BreakerFailureRatio:     c.BreakerFailureRatio,
		BreakerOpenTimeout:      c.BreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: c.BreakerHalfOpenMaxCalls,
	}
}

func (s Settings) normalize() Settings {
	if s.RetryMaxAttempts < 1 {
		s.RetryMaxAttempts = 1
	}
	if s.RetryMultiplier < 1 {
		s.RetryMultiplier = 1
	}
	if s.RetryMaxBackoff < s.RetryInitialBackoff {
		s.RetryMaxBackoff = s.RetryInitialBackoff
	}
	if s.BreakerMinRequests == 0 {
		s.BreakerMinRequests = 1
	}
	if s.BreakerFailureRatio <= 0 || s.BreakerFailureRatio > 1 {
		s.BreakerFailureRatio = 1
	}
	if s.BreakerHalfOpenMaxCalls == 0 {
		s.BreakerHalfOpenMaxCalls = 1
	}
	return s
}

// Classification tells the executor how to treat an error
type Classification struct {
	Retryable     bool
	RecordFailure bool
}

// Classifier classifies an operation error
type Classifier func(err error) Classification

// DefaultClassifier retries everything except cancellation and
// configuration errors, which are also not counted against the breaker
func DefaultClassifier(err error) Classification {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Classification{}
	case errors.Is(err, core.ErrInvalidConfig):
		return Classification{}
	default:
		return Classification{Retryable: true, RecordFailure: true}
	}
}

// Executor runs operations with retry and circuit breaking
type Executor struct {
	settings Settings
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewExecutor creates a new executor
func NewExecutor(settings Settings, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		settings: settings.normalize(),
		logger:   logger,
		sleep:    sleepContext,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Execute runs fn under the named operation's breaker, retrying retryable
// failures. A nil classifier selects DefaultClassifier.
func (e *Executor) Execute(ctx context.Context, operation string, fn func(context.Context) error, classifier Classifier) error {
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classifier == nil {
		classifier = DefaultClassifier
	}

	if !e.settings.BreakerEnabled {
		return e.executeWithRetry(ctx, op, fn, classifier)
	}

	_, err := e.breaker(op, classifier).Execute(func() (any, error) {
		return nil, e.executeWithRetry(ctx, op, fn, classifier)
	})
	if IsCircuitOpen(err) {
		return core.WrapError(core.ErrSourceUnavailable, op, err)
	}
	return err
}

func (e *Executor) executeWithRetry(ctx context.Context, op string, fn func(context.Context) error, classifier Classifier) error {
	backoff := e.settings.RetryInitialBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !classifier(err).Retryable || attempt >= e.settings.RetryMaxAttempts {
			return err
		}

		wait := min(backoff, e.settings.RetryMaxBackoff)
		e.logger.Warn("Retrying operation",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", e.settings.RetryMaxAttempts),
			zap.Duration("backoff", wait),
			zap.Error(err))

		if sleepErr := e.sleep(ctx, wait); sleepErr != nil {
			return err
		}
		backoff = min(time.Duration(float64(backoff)*e.settings.RetryMultiplier), e.settings.RetryMaxBackoff)
	}
}

func (e *Executor) breaker(op string, classifier Classifier) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if b, ok := e.breakers[op]; ok {
		return b
	}

	b := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        op,
		MaxRequests: e.settings.BreakerHalfOpenMaxCalls,
		Timeout:     e.settings.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.settings.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= e.settings.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classifier(err).RecordFailure
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.logger.Warn("Circuit breaker state changed",
				zap.String("operation", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	e.breakers[op] = b
	return b
}

// State returns the breaker state of an operation, closed when unknown
func (e *Executor) State(operation string) gobreaker.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.breakers[operation]; ok {
		return b.State()
	}
	return gobreaker.StateClosed
}

// IsCircuitOpen reports whether err was returned by an open or saturated breaker
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
