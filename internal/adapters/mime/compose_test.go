package mime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

func TestComposeRoundTrip(t *testing.T) {
	report := core.OutgoingReport{
		From:    "Scanner <scanner@example.com>",
		To:      []string{"me@example.com"},
		Subject: "Email Scanner Summary Report - 2024-05-01",
		Text:    "Total emails scanned: 12",
		HTML:    "<p>Total emails scanned: <strong>12</strong></p>",
	}

	raw, err := Compose(report, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	msg, err := NewParser(nil).ParseBytes(raw, "x")
	require.NoError(t, err)

	assert.Equal(t, report.Subject, msg.Subject)
	assert.Equal(t, []string{"me@example.com"}, msg.To)
	assert.Contains(t, msg.From, "scanner@example.com")
	assert.Contains(t, msg.Body, "Total emails scanned: 12")
}

func TestComposeRejectsBadAddresses(t *testing.T) {
	_, err := Compose(core.OutgoingReport{From: "not an address", To: []string{"me@example.com"}, Subject: "s"}, time.Now())
	assert.Error(t, err)

	_, err = Compose(core.OutgoingReport{From: "a@example.com", To: []string{"@@"}, Subject: "s"}, time.Now())
	assert.Error(t, err)
}
