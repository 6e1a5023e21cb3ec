package gmail

import (
	"context"
	"encoding/base64"
	"time"

	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/mikey/mail-topic-scanner/internal/adapters/mime"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

// Sender delivers reports with users.messages.send
type Sender struct {
	svc    *gmailapi.Service
	user   string
	logger *zap.Logger
}

// NewSender creates a Gmail report sender
func NewSender(svc *gmailapi.Service, user string, logger *zap.Logger) *Sender {
	if user == "" {
		user = "me"
	}
	return &Sender{svc: svc, user: user, logger: logger}
}

func (s *Sender) Send(ctx context.Context, report core.OutgoingReport) error {
	raw, err := mime.Compose(report, time.Now())
	if err != nil {
		return core.WrapError(core.ErrDelivery, "gmail send", err)
	}

	sent, err := s.svc.Users.Messages.Send(s.user, &gmailapi.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return core.WrapError(core.ErrDelivery, "gmail send", err)
	}

	s.logger.Info("Report sent via Gmail", zap.String("id", sent.Id), zap.Strings("to", report.To))
	return nil
}
