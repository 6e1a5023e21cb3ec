// Package maildir reads messages from a local directory: either a Maildir
// (cur/new) or a flat directory of .eml files.
package maildir

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/adapters/mime"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

// Source is a MailSource over a local directory
type Source struct {
	root   string
	parser *mime.Parser
	logger *zap.Logger
}

// NewSource creates a directory mail source rooted at path
func NewSource(path string, parser *mime.Parser, logger *zap.Logger) *Source {
	return &Source{root: path, parser: parser, logger: logger}
}

type entry struct {
	path   string
	unread bool
}

// Fetch parses every message under the root (or root/Folder when that
// exists), filters by date and read state, and returns the newest first
func (s *Source) Fetch(ctx context.Context, query core.FetchQuery) ([]core.Message, error) {
	dir := s.root
	if query.Folder != "" && !strings.EqualFold(query.Folder, "INBOX") {
		dir = filepath.Join(s.root, query.Folder)
	}

	entries, err := scan(dir)
	if err != nil {
		return nil, core.WrapError(core.ErrSourceUnavailable, "maildir scan", err)
	}

	var out []core.Message
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if query.UnreadOnly && !e.unread {
			continue
		}

		msg, err := s.parse(e.path)
		if err != nil {
			s.logger.Warn("Skipping unreadable message", zap.String("path", e.path), zap.Error(err))
			continue
		}
		if !query.Since.IsZero() && msg.Date.Before(query.Since) {
			continue
		}
		out = append(out, msg)
	}

	slices.SortStableFunc(out, func(a, b core.Message) int {
		return b.Date.Compare(a.Date)
	})
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}

	s.logger.Debug("Read messages from directory", zap.String("dir", dir), zap.Int("count", len(out)))
	return out, nil
}

func (s *Source) parse(path string) (core.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Message{}, err
	}
	defer f.Close()

	msg, err := s.parser.Parse(f, filepath.Base(path))
	if err != nil {
		return core.Message{}, err
	}
	if msg.Date.IsZero() {
		if info, err := f.Stat(); err == nil {
			msg.Date = info.ModTime()
		}
	}
	return msg, nil
}

// scan lists candidate message files. Files under new/ are unread; files
// under cur/ are unread unless their info suffix carries the S flag.
// Everything else must end in .eml and counts as unread.
func scan(dir string) ([]entry, error) {
	var entries []entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == "tmp" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		switch filepath.Base(filepath.Dir(path)) {
		case "new":
			entries = append(entries, entry{path: path, unread: true})
		case "cur":
			entries = append(entries, entry{path: path, unread: !hasSeenFlag(d.Name())})
		default:
			if strings.EqualFold(filepath.Ext(path), ".eml") {
				entries = append(entries, entry{path: path, unread: true})
			}
		}
		return nil
	})
	return entries, err
}

func hasSeenFlag(name string) bool {
	_, info, ok := strings.Cut(name, ":2,")
	return ok && strings.Contains(info, "S")
}
