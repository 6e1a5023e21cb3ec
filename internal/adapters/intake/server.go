// Package intake runs a small SMTP listener that accepts forwarded
// newsletters and serves them to the scanner as a mail source.
package intake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/adapters/mime"
	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

// Server is an SMTP listener and a MailSource. Accepted messages are held in
// a bounded buffer until a scan drains them; when the buffer is full the
// oldest message is dropped.
type Server struct {
	cfg      config.IntakeConfig
	parser   *mime.Parser
	logger   *zap.Logger
	server   *smtp.Server
	listener net.Listener

	mu       sync.Mutex
	messages []core.Message
	received func() time.Time
}

// NewServer creates the intake listener; call Start to accept connections
func NewServer(cfg config.IntakeConfig, parser *mime.Parser, logger *zap.Logger) *Server {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = 10 * 1024 * 1024
	}
	if cfg.Domain == "" {
		cfg.Domain = "localhost"
	}
	return &Server{
		cfg:      cfg,
		parser:   parser,
		logger:   logger,
		received: time.Now,
	}
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	s.listener = l

	s.server = smtp.NewServer(&backend{intake: s})
	s.server.Domain = s.cfg.Domain
	s.server.ReadTimeout = 30 * time.Second
	s.server.WriteTimeout = 30 * time.Second
	s.server.MaxMessageBytes = s.cfg.MaxMessageBytes
	s.server.MaxRecipients = 50

	s.logger.Info("SMTP intake starting", zap.String("address", l.Addr().String()))

	go func() {
		if err := s.server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			s.logger.Error("SMTP intake error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.ListenAddress
	}
	return s.listener.Addr().String()
}

// Stop closes the listener and every open session
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// Pending returns the number of buffered messages
func (s *Server) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Fetch drains the buffered messages that match the query, newest first.
// Messages not returned stay buffered.
func (s *Server) Fetch(ctx context.Context, query core.FetchQuery) ([]core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched, kept []core.Message
	for _, m := range s.messages {
		if !query.Since.IsZero() && m.Date.Before(query.Since) {
			kept = append(kept, m)
			continue
		}
		matched = append(matched, m)
	}

	slices.SortStableFunc(matched, func(a, b core.Message) int {
		return b.Date.Compare(a.Date)
	})
	if query.Limit > 0 && len(matched) > query.Limit {
		kept = append(kept, matched[query.Limit:]...)
		matched = matched[:query.Limit]
	}

	s.messages = kept
	return matched, nil
}

func (s *Server) accept(sender string, recipients []string, raw []byte) error {
	msg, err := s.parser.Parse(bytes.NewReader(raw), fmt.Sprintf("intake-%d", s.received().UnixNano()))
	if err != nil {
		return err
	}
	if msg.From == "" {
		msg.From = sender
	}
	if len(msg.To) == 0 {
		msg.To = recipients
	}
	if msg.Date.IsZero() {
		msg.Date = s.received()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) >= s.cfg.BufferSize {
		dropped := s.messages[0]
		s.messages = s.messages[1:]
		s.logger.Warn("Intake buffer full, dropping oldest message", zap.String("message_id", dropped.ID))
	}
	s.messages = append(s.messages, msg)

	s.logger.Info("Accepted message",
		zap.String("from", msg.From),
		zap.String("subject", msg.Subject),
		zap.Int("buffered", len(s.messages)))
	return nil
}

// backend implements the go-smtp Backend interface
type backend struct {
	intake *Server
}

func (b *backend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &session{intake: b.intake}, nil
}

// session implements the go-smtp Session interface
type session struct {
	intake     *Server
	sender     string
	recipients []string
}

func (s *session) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

func (s *session) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.intake.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	if err := s.intake.accept(s.sender, s.recipients, raw); err != nil {
		s.intake.logger.Error("Failed to parse message", zap.String("sender", s.sender), zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Message could not be parsed",
		}
	}
	return nil
}

func (s *session) Logout() error {
	return nil
}
