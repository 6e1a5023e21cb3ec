package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

func newTestExecutor(s Settings) (*Executor, *[]time.Duration) {
	e := NewExecutor(s, zap.NewNop())
	var waits []time.Duration
	e.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return e, &waits
}

func TestRetryWithBackoff(t *testing.T) {
	e, waits := newTestExecutor(Settings{
		RetryMaxAttempts:    4,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     250 * time.Millisecond,
		RetryMultiplier:     2,
	})

	calls := 0
	err := e.Execute(context.Background(), "fetch", func(context.Context) error {
		calls++
		if calls < 4 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 250 * time.Millisecond}, *waits)
}

func TestRetryGivesUp(t *testing.T) {
	e, _ := newTestExecutor(Settings{RetryMaxAttempts: 2})

	calls := 0
	err := e.Execute(context.Background(), "fetch", func(context.Context) error {
		calls++
		return errors.New("down")
	}, nil)

	assert.EqualError(t, err, "down")
	assert.Equal(t, 2, calls)
}

func TestNonRetryableStopsImmediately(t *testing.T) {
	e, _ := newTestExecutor(Settings{RetryMaxAttempts: 5})

	calls := 0
	err := e.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return core.WrapError(core.ErrInvalidConfig, "op", errors.New("bad key"))
	}, nil)

	assert.ErrorIs(t, err, core.ErrInvalidConfig)
	assert.Equal(t, 1, calls)
}

func TestCanceledContextSkipsCall(t *testing.T) {
	e, _ := newTestExecutor(Settings{RetryMaxAttempts: 3})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Execute(ctx, "op", func(context.Context) error {
		t.Fatal("must not be called")
		return nil
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBreakerOpens(t *testing.T) {
	e, _ := newTestExecutor(Settings{
		RetryMaxAttempts:    1,
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	})
	failing := func(context.Context) error { return errors.New("boom") }

	assert.EqualError(t, e.Execute(context.Background(), "gen", failing, nil), "boom")
	assert.EqualError(t, e.Execute(context.Background(), "gen", failing, nil), "boom")
	assert.Equal(t, gobreaker.StateOpen, e.State("gen"))

	err := e.Execute(context.Background(), "gen", func(context.Context) error {
		t.Fatal("breaker is open")
		return nil
	}, nil)
	assert.True(t, IsCircuitOpen(err))
	assert.ErrorIs(t, err, core.ErrSourceUnavailable)

	assert.Equal(t, gobreaker.StateClosed, e.State("other"))
}

func TestBreakerIgnoresUnrecordedErrors(t *testing.T) {
	e, _ := newTestExecutor(Settings{
		RetryMaxAttempts:    1,
		BreakerEnabled:      true,
		BreakerMinRequests:  1,
		BreakerFailureRatio: 0.1,
		BreakerOpenTimeout:  time.Minute,
	})

	for i := 0; i < 3; i++ {
		_ = e.Execute(context.Background(), "gen", func(context.Context) error { return context.Canceled }, nil)
	}
	assert.Equal(t, gobreaker.StateClosed, e.State("gen"))
}

type stubGenerator struct {
	calls int
	fail  int
}

func (s *stubGenerator) GenerateTopics(context.Context, core.TopicRequest) ([]core.Topic, error) {
	s.calls++
	if s.calls <= s.fail {
		return nil, errors.New("unavailable")
	}
	return []core.Topic{{Title: "ok"}}, nil
}

type stubSource struct{ calls int }

func (s *stubSource) Fetch(context.Context, core.FetchQuery) ([]core.Message, error) {
	s.calls++
	if s.calls == 1 {
		return nil, errors.New("timeout")
	}
	return []core.Message{{ID: "1"}}, nil
}

func TestGuardedDecorators(t *testing.T) {
	e, _ := newTestExecutor(Settings{RetryMaxAttempts: 3})

	gen := &stubGenerator{fail: 2}
	topics, err := NewGuardedTopicGenerator(gen, e, "topics").GenerateTopics(context.Background(), core.TopicRequest{})
	require.NoError(t, err)
	assert.Len(t, topics, 1)
	assert.Equal(t, 3, gen.calls)

	src := &stubSource{}
	msgs, err := NewGuardedMailSource(src, e, "fetch").Fetch(context.Background(), core.FetchQuery{})
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, 2, src.calls)
}
