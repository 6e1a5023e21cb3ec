// Package smtp delivers the scan report through an SMTP relay.
package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"os"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/adapters/mime"
	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

// implicitTLSPort is the submission port that expects TLS from the first byte
const implicitTLSPort = 465

// Sender is a ReportSender using an SMTP relay with optional STARTTLS and
// PLAIN authentication
type Sender struct {
	cfg       config.SMTPConfig
	tlsConfig *tls.Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewSender creates an SMTP report sender
func NewSender(cfg config.SMTPConfig, logger *zap.Logger) *Sender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Sender{
		cfg:       cfg,
		tlsConfig: &tls.Config{ServerName: cfg.Address},
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Sender) Send(ctx context.Context, report core.OutgoingReport) error {
	raw, err := mime.Compose(report, s.now())
	if err != nil {
		return core.WrapError(core.ErrDelivery, "smtp send", err)
	}

	if err := s.deliver(ctx, report, raw); err != nil {
		return core.WrapError(core.ErrDelivery, "smtp send", err)
	}

	s.logger.Info("Report sent via SMTP",
		zap.String("relay", s.cfg.Address),
		zap.Strings("to", report.To))
	return nil
}

func (s *Sender) deliver(ctx context.Context, report core.OutgoingReport, raw []byte) error {
	addr := net.JoinHostPort(s.cfg.Address, strconv.Itoa(s.cfg.Port))
	tlsConfig := s.tlsConfig.Clone()

	dialer := &net.Dialer{Timeout: s.cfg.Timeout}
	var (
		conn net.Conn
		err  error
	)
	if s.cfg.Port == implicitTLSPort {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c, err := s.newClient(conn, tlsConfig)
	if err != nil {
		return err
	}
	defer c.Close()

	if s.cfg.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)); err != nil {
			return fmt.Errorf("AUTH failed: %w", err)
		}
	}

	from := report.From
	if parsed, err := parseAddress(from); err == nil {
		from = parsed
	}
	if err := c.Mail(from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := 0
	for _, rcpt := range report.To {
		if err := c.Rcpt(rcpt, nil); err != nil {
			s.logger.Warn("RCPT TO failed for recipient", zap.String("recipient", rcpt), zap.Error(err))
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := bytes.NewReader(raw).WriteTo(wc); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		s.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// newClient greets the relay. The STARTTLS client sends its own EHLO before
// upgrading, so Hello is only called on plain and implicit TLS connections.
func (s *Sender) newClient(conn net.Conn, tlsConfig *tls.Config) (*gosmtp.Client, error) {
	if s.cfg.StartTLS && s.cfg.Port != implicitTLSPort {
		c, err := gosmtp.NewClientStartTLS(conn, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("STARTTLS failed: %w", err)
		}
		return c, nil
	}

	c := gosmtp.NewClient(conn)
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	if err := c.Hello(hostname); err != nil {
		c.Close()
		return nil, fmt.Errorf("EHLO failed: %w", err)
	}
	return c, nil
}

func parseAddress(s string) (string, error) {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", err
	}
	return addr.Address, nil
}
