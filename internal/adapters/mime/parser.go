// Package mime turns raw RFC 5322 messages into core messages.
package mime

import (
	"bytes"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/jhillyerd/enmime"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/core"
	"github.com/mikey/mail-topic-scanner/internal/utils"
)

// Parser converts raw messages with enmime. HTML-only messages are reduced to
// text with link targets kept so the analyzer can count them.
type Parser struct {
	text   *utils.TextProcessor
	logger *zap.Logger
}

// NewParser creates a parser
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{text: utils.NewTextProcessor(logger), logger: logger}
}

// ParseBytes parses a raw message held in memory
func (p *Parser) ParseBytes(raw []byte, fallbackID string) (core.Message, error) {
	return p.Parse(bytes.NewReader(raw), fallbackID)
}

// Parse reads one message. fallbackID is used when the message carries no
// Message-ID header.
func (p *Parser) Parse(r io.Reader, fallbackID string) (core.Message, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return core.Message{}, fmt.Errorf("failed to parse message: %w", err)
	}

	for _, perr := range env.Errors {
		p.logger.Debug("MIME parse warning", zap.String("message_id", fallbackID), zap.String("warning", perr.Error()))
	}

	msg := core.Message{
		ID:      strings.Trim(strings.TrimSpace(env.GetHeader("Message-ID")), "<>"),
		Subject: env.GetHeader("Subject"),
		From:    env.GetHeader("From"),
		Headers: make(map[string][]string),
	}
	if msg.ID == "" {
		msg.ID = fallbackID
	}

	if date := env.GetHeader("Date"); date != "" {
		if t, err := mail.ParseDate(date); err == nil {
			msg.Date = t
		} else {
			p.logger.Debug("Unparseable Date header", zap.String("message_id", msg.ID), zap.String("date", date))
		}
	}

	if to, err := env.AddressList("To"); err == nil {
		for _, addr := range to {
			msg.To = append(msg.To, addr.Address)
		}
	}

	for _, key := range env.GetHeaderKeys() {
		if values := env.GetHeaderValues(key); len(values) > 0 {
			msg.Headers[key] = values
		}
	}

	msg.Body = p.body(env)

	for _, part := range append(env.Attachments, env.Inlines...) {
		msg.Attachments = append(msg.Attachments, core.Attachment{
			Filename:    part.FileName,
			ContentType: part.ContentType,
			Size:        int64(len(part.Content)),
		})
	}

	return msg, nil
}

func (p *Parser) body(env *enmime.Envelope) string {
	hasPlain := env.Root != nil && env.Root.BreadthMatchFirst(func(part *enmime.Part) bool {
		return part.ContentType == "text/plain" && part.Disposition != "attachment"
	}) != nil

	if hasPlain || env.HTML == "" {
		return p.text.SanitizeUTF8(env.Text)
	}

	text, err := utils.HTMLToText(env.HTML)
	if err != nil {
		p.logger.Debug("Falling back to enmime text conversion", zap.Error(err))
		return p.text.SanitizeUTF8(env.Text)
	}
	return p.text.SanitizeUTF8(text)
}
