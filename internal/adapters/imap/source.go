// Package imap fetches messages from an IMAP mailbox.
package imap

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"slices"
	"strconv"
	"time"

	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/adapters/mime"
	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

// Source is a MailSource backed by an IMAP server. Each Fetch opens its own
// connection and logs out when done.
type Source struct {
	cfg    config.IMAPConfig
	parser *mime.Parser
	logger *zap.Logger
}

// NewSource creates an IMAP mail source
func NewSource(cfg config.IMAPConfig, parser *mime.Parser, logger *zap.Logger) *Source {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Source{cfg: cfg, parser: parser, logger: logger}
}

// Fetch returns the newest messages matching the query, newest first
func (s *Source) Fetch(ctx context.Context, query core.FetchQuery) ([]core.Message, error) {
	c, err := s.connect()
	if err != nil {
		return nil, core.WrapError(core.ErrSourceUnavailable, "imap connect", err)
	}
	defer func() {
		if err := c.Logout(); err != nil {
			s.logger.Debug("IMAP logout failed", zap.Error(err))
		}
	}()

	// the client has no context support; closing the connection unblocks it
	stop := context.AfterFunc(ctx, func() { c.Terminate() })
	defer stop()

	folder := query.Folder
	if folder == "" {
		folder = "INBOX"
	}
	if _, err := c.Select(folder, true); err != nil {
		return nil, core.WrapError(core.ErrSourceUnavailable, "imap select",
			errors.Wrapf(err, "select %s", folder))
	}

	uids, err := c.UidSearch(searchCriteria(query))
	if err != nil {
		return nil, core.WrapError(core.ErrSourceUnavailable, "imap search", errors.Wrap(err, "uid search"))
	}

	uids = newestUIDs(uids, query.Limit)
	s.logger.Info("Found messages on IMAP server",
		zap.String("folder", folder),
		zap.Int("selected", len(uids)))
	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(uids...)

	section := &goimap.BodySectionName{Peek: true}
	items := []goimap.FetchItem{section.FetchItem(), goimap.FetchUid}

	fetched := make(chan *goimap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqSet, items, fetched)
	}()

	byUID := make(map[uint32]core.Message, len(uids))
	for m := range fetched {
		literal := m.GetBody(section)
		if literal == nil {
			s.logger.Warn("Server returned no body", zap.Uint32("uid", m.Uid))
			continue
		}
		raw, err := io.ReadAll(literal)
		if err != nil {
			s.logger.Warn("Failed to read message body", zap.Uint32("uid", m.Uid), zap.Error(err))
			continue
		}
		msg, err := s.parser.Parse(bytes.NewReader(raw), strconv.FormatUint(uint64(m.Uid), 10))
		if err != nil {
			s.logger.Warn("Failed to parse message", zap.Uint32("uid", m.Uid), zap.Error(err))
			continue
		}
		byUID[m.Uid] = msg
	}

	if err := <-done; err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, core.WrapError(core.ErrSourceUnavailable, "imap fetch", errors.Wrap(err, "uid fetch"))
	}

	out := make([]core.Message, 0, len(byUID))
	for _, uid := range uids {
		if msg, ok := byUID[uid]; ok {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s *Source) connect() (*client.Client, error) {
	addr := net.JoinHostPort(s.cfg.Address, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: s.cfg.Timeout, KeepAlive: 30 * time.Second}

	var (
		c   *client.Client
		err error
	)
	if s.cfg.TLS {
		c, err = client.DialWithDialerTLS(dialer, addr, &tls.Config{ServerName: s.cfg.Address})
	} else {
		c, err = client.DialWithDialer(dialer, addr)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}

	c.Timeout = s.cfg.Timeout
	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		c.Logout()
		return nil, errors.Wrapf(err, "login as %s", s.cfg.Username)
	}

	s.logger.Debug("Connected to IMAP server", zap.String("address", addr))
	return c, nil
}

func searchCriteria(query core.FetchQuery) *goimap.SearchCriteria {
	criteria := goimap.NewSearchCriteria()
	if !query.Since.IsZero() {
		criteria.Since = query.Since
	}
	if query.UnreadOnly {
		criteria.WithoutFlags = []string{goimap.SeenFlag}
	}
	return criteria
}

// newestUIDs keeps the highest UIDs, newest first
func newestUIDs(uids []uint32, limit int) []uint32 {
	out := slices.Clone(uids)
	slices.Sort(out)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// String describes the source for logs
func (s *Source) String() string {
	return fmt.Sprintf("imap://%s@%s:%d", s.cfg.Username, s.cfg.Address, s.cfg.Port)
}
