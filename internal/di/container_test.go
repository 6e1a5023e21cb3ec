package di

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/core"
	"github.com/mikey/mail-topic-scanner/internal/scheduler"
)

const newsletter = `From: Go Weekly <newsletter@golangweekly.com>
To: me@example.com
Subject: Go Weekly: generics, profiling and the new scheduler
Message-ID: <issue-1@golangweekly.com>
Date: Wed, 01 May 2024 08:00:00 +0000
Content-Type: text/plain; charset=utf-8

This week in Go programming: a tutorial on generics, a deep dive into the
runtime scheduler, profiling tips for production services and a guide to
structured logging. Read the article online and subscribe to the newsletter
for more developer news about software, APIs, cloud and open source tooling.
Learn how teams use Go for backend development, testing and deployment.
`

const statement = `From: Chase <alerts@chase.com>
To: me@example.com
Subject: Your statement is ready
Message-ID: <statement-1@chase.com>
Date: Wed, 01 May 2024 07:00:00 +0000
Content-Type: text/plain; charset=utf-8

Your monthly statement is now available online.
`

func offlineConfig(t *testing.T, mails ...string) func() (*config.Config, error) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "new"), 0o755))
	if len(mails) == 0 {
		mails = []string{newsletter}
	}
	for i, m := range mails {
		name := filepath.Join(dir, "new", fmt.Sprintf("%d.eml", i+1))
		require.NoError(t, os.WriteFile(name, []byte(m), 0o644))
	}

	return func() (*config.Config, error) {
		v := config.NewEmptyViper()
		v.Set("mail.source", "maildir")
		v.Set("maildir.path", dir)
		v.Set("mail.days_back", 0)
		v.Set("topics.provider", "none")
		v.Set("store.type", "memory")
		v.Set("dedupe.type", "memory")
		v.Set("report.enabled", false)
		v.Set("logging.level", "error")
		return config.NewFromViper(v), nil
	}
}

func TestContainerRunsScan(t *testing.T) {
	container, err := BuildContainerWithConfig(offlineConfig(t))
	require.NoError(t, err)

	err = container.Invoke(func(svc *core.ScanService, store core.ResultStore) {
		out, err := svc.RunScan(context.Background())
		require.NoError(t, err)
		assert.Equal(t, core.ScanStatusSuccess, out.Log.Status)
		assert.Equal(t, 1, out.Log.MessagesFetched)
		assert.Empty(t, out.Topics)

		stats, err := store.Statistics(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalMessages)
		require.NotNil(t, stats.LastScan)
		assert.Equal(t, out.Log.RunID, stats.LastScan.RunID)
	})
	require.NoError(t, err)
}

func TestContainerScanLogSkipsExcluded(t *testing.T) {
	container, err := BuildContainerWithConfig(offlineConfig(t, newsletter, statement))
	require.NoError(t, err)

	err = container.Invoke(func(svc *core.ScanService, store core.ResultStore) {
		out, err := svc.RunScan(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, out.Log.MessagesFetched)
		assert.Equal(t, 1, out.Batch.Stats.Categories[core.CategoryExcluded].Count)
		assert.Equal(t, 1, out.Log.MessagesCategorized)

		stats, err := store.Statistics(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalMessages)
		assert.Equal(t, stats.CategorizedMessages, out.Log.MessagesCategorized)
		require.NotNil(t, stats.LastScan)
		assert.Equal(t, 1, stats.LastScan.MessagesCategorized)
	})
	require.NoError(t, err)
}

func TestContainerProvidesScheduler(t *testing.T) {
	container, err := BuildContainerWithConfig(offlineConfig(t))
	require.NoError(t, err)

	err = container.Invoke(func(s *scheduler.Scheduler) {
		assert.Len(t, s.Specs(), 2)
	})
	require.NoError(t, err)
}
