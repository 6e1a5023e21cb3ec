package maildir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/adapters/mime"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

func writeMessage(t *testing.T, path, id string, date time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	raw := fmt.Sprintf("From: a@example.com\r\nSubject: %s\r\nMessage-ID: <%s>\r\nDate: %s\r\n\r\nbody\r\n",
		id, id, date.Format(time.RFC1123Z))
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
}

func TestFetchMaildir(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	writeMessage(t, filepath.Join(root, "new", "1.host"), "new-1", base.Add(2*time.Hour))
	writeMessage(t, filepath.Join(root, "cur", "2.host:2,S"), "read-2", base.Add(time.Hour))
	writeMessage(t, filepath.Join(root, "cur", "3.host:2,F"), "flagged-3", base)
	writeMessage(t, filepath.Join(root, "tmp", "4.host"), "tmp-4", base)
	writeMessage(t, filepath.Join(root, "old.eml"), "old-5", base.Add(-48*time.Hour))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0o600))

	src := NewSource(root, mime.NewParser(nil), zap.NewNop())
	ctx := context.Background()

	all, err := src.Fetch(ctx, core.FetchQuery{})
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, m := range all {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"new-1", "read-2", "flagged-3", "old-5"}, ids)

	unread, err := src.Fetch(ctx, core.FetchQuery{UnreadOnly: true, Since: base.Add(-time.Hour)})
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, "new-1", unread[0].ID)
	assert.Equal(t, "flagged-3", unread[1].ID)

	limited, err := src.Fetch(ctx, core.FetchQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "new-1", limited[0].ID)
}

func TestFetchMissingDirectory(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "nope"), mime.NewParser(nil), zap.NewNop())

	_, err := src.Fetch(context.Background(), core.FetchQuery{})
	assert.True(t, core.IsKind(err, core.ErrSourceUnavailable))
}

func TestHasSeenFlag(t *testing.T) {
	assert.True(t, hasSeenFlag("123.host:2,RS"))
	assert.False(t, hasSeenFlag("123.host:2,F"))
	assert.False(t, hasSeenFlag("123.host"))
}
