package mime

import (
	"bytes"
	"fmt"
	"net/mail"
	"time"

	"github.com/jhillyerd/enmime"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

// Compose encodes a report as a multipart/alternative RFC 5322 message
func Compose(report core.OutgoingReport, date time.Time) ([]byte, error) {
	from, err := mail.ParseAddress(report.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", report.From, err)
	}

	recipients := make([]mail.Address, 0, len(report.To))
	for _, to := range report.To {
		addr, err := mail.ParseAddress(to)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
		}
		recipients = append(recipients, *addr)
	}

	builder := enmime.Builder().
		From(from.Name, from.Address).
		ToAddrs(recipients).
		Subject(report.Subject).
		Date(date).
		Text([]byte(report.Text))
	if report.HTML != "" {
		builder = builder.HTML([]byte(report.HTML))
	}

	root, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build message: %w", err)
	}

	var buf bytes.Buffer
	if err := root.Encode(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return buf.Bytes(), nil
}
