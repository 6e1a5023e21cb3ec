package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

type countingScanner struct {
	calls atomic.Int32
	err   error
}

func (c *countingScanner) RunScan(ctx context.Context) (*core.ScanOutcome, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &core.ScanOutcome{Log: core.ScanLog{RunID: "r", Status: core.ScanStatusSuccess}}, nil
}

func TestSpecs(t *testing.T) {
	specs, err := Specs(config.SchedulerConfig{
		ScanTimes: []string{"09:00", "18:30", "09:00"},
		Timezone:  "Europe/Berlin",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CRON_TZ=Europe/Berlin 0 0 9 * * *",
		"CRON_TZ=Europe/Berlin 0 30 18 * * *",
	}, specs)
}

func TestSpecsErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SchedulerConfig
	}{
		{"bad time", config.SchedulerConfig{ScanTimes: []string{"9am"}}},
		{"bad timezone", config.SchedulerConfig{ScanTimes: []string{"09:00"}, Timezone: "Mars/Base"}},
		{"no times", config.SchedulerConfig{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Specs(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(config.SchedulerConfig{ScanTimes: []string{"25:00"}}, &countingScanner{}, zap.NewNop())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.ErrInvalidConfig))
}

func TestNextRun(t *testing.T) {
	s, err := New(config.SchedulerConfig{ScanTimes: []string{"09:00", "18:00"}, Timezone: "UTC"}, &countingScanner{}, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, s.jobIDs, 2)

	morning := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), s.NextRun(morning).UTC())

	afternoon := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC), s.NextRun(afternoon).UTC())

	night := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC), s.NextRun(night).UTC())
}

func TestNextRunHonoursTimezone(t *testing.T) {
	s, err := New(config.SchedulerConfig{ScanTimes: []string{"09:00"}, Timezone: "America/New_York"}, &countingScanner{}, zap.NewNop())
	require.NoError(t, err)

	// 09:00 EDT is 13:00 UTC
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC), s.NextRun(from).UTC())
}

func TestRunScan(t *testing.T) {
	scanner := &countingScanner{}
	s, err := New(config.SchedulerConfig{ScanTimes: []string{"09:00"}}, scanner, zap.NewNop())
	require.NoError(t, err)

	s.runScan()
	assert.Equal(t, int32(1), scanner.calls.Load())

	scanner.err = errors.New("imap down")
	s.runScan()
	assert.Equal(t, int32(2), scanner.calls.Load())

	s.Start()
	s.Stop()
	s.Stop()
	s.runScan()
	assert.Equal(t, int32(2), scanner.calls.Load(), "no scans after stop")
}
