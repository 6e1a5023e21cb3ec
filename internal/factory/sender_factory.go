package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/adapters/gmail"
	"github.com/mikey/mail-topic-scanner/internal/adapters/smtp"
	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

// SenderFactory creates report senders based on configuration
type SenderFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	gmail  *GmailServices
}

// NewSenderFactory creates a new sender factory
func NewSenderFactory(cfg *config.Config, logger *zap.Logger, gmail *GmailServices) *SenderFactory {
	return &SenderFactory{
		cfg:    cfg,
		logger: logger,
		gmail:  gmail,
	}
}

// CreateReportSender creates the sender named by report.transport. It
// returns nil when reports are disabled.
func (f *SenderFactory) CreateReportSender(ctx context.Context) (core.ReportSender, error) {
	rc := f.cfg.GetReport()
	if !rc.Enabled {
		return nil, nil
	}

	switch rc.Transport {
	case "smtp":
		return smtp.NewSender(f.cfg.GetSMTP(), f.logger), nil
	case "gmail":
		svc, err := f.gmail.Service(ctx)
		if err != nil {
			return nil, err
		}
		return gmail.NewSender(svc, f.cfg.GetGmail().User, f.logger), nil
	default:
		return nil, core.WrapError(core.ErrInvalidConfig, "create report sender",
			fmt.Errorf("unsupported report transport: %s", rc.Transport))
	}
}

// ReportFrom returns the configured sender address, falling back to the
// SMTP username
func (f *SenderFactory) ReportFrom() string {
	if from := f.cfg.GetReport().From; from != "" {
		return from
	}
	return f.cfg.GetSMTP().Username
}
