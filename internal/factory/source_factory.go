package factory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/mikey/mail-topic-scanner/internal/adapters/gmail"
	"github.com/mikey/mail-topic-scanner/internal/adapters/imap"
	"github.com/mikey/mail-topic-scanner/internal/adapters/intake"
	"github.com/mikey/mail-topic-scanner/internal/adapters/maildir"
	"github.com/mikey/mail-topic-scanner/internal/adapters/mime"
	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/core"
	"github.com/mikey/mail-topic-scanner/internal/resilience"
)

// GmailServices lazily creates the one Gmail API service shared by the
// mail source and the report sender
type GmailServices struct {
	cfg config.GmailConfig

	mu  sync.Mutex
	svc *gmailapi.Service
}

// NewGmailServices creates a lazy Gmail service holder
func NewGmailServices(cfg *config.Config) *GmailServices {
	return &GmailServices{cfg: cfg.GetGmail()}
}

// Service returns the shared service, creating it on first use
func (g *GmailServices) Service(ctx context.Context) (*gmailapi.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.svc != nil {
		return g.svc, nil
	}
	svc, err := gmail.NewService(ctx, g.cfg)
	if err != nil {
		return nil, err
	}
	g.svc = svc
	return svc, nil
}

// SourceFactory creates mail sources based on configuration
type SourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	parser *mime.Parser
	gmail  *GmailServices

	mu     sync.Mutex
	intake *intake.Server
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger, parser *mime.Parser, gmail *GmailServices) *SourceFactory {
	return &SourceFactory{
		cfg:    cfg,
		logger: logger,
		parser: parser,
		gmail:  gmail,
	}
}

// CreateMailSource creates the source named by mail.source. Remote sources
// are wrapped in retries and a circuit breaker.
func (f *SourceFactory) CreateMailSource(ctx context.Context) (core.MailSource, error) {
	name := f.cfg.GetMail().Source

	var source core.MailSource
	switch name {
	case "imap":
		source = imap.NewSource(f.cfg.GetIMAP(), f.parser, f.logger)
	case "gmail":
		svc, err := f.gmail.Service(ctx)
		if err != nil {
			return nil, err
		}
		gc := f.cfg.GetGmail()
		source = gmail.NewSource(svc, gc.User, gc.RequestsPerSecond, f.parser, f.logger)
	case "maildir":
		return maildir.NewSource(f.cfg.GetMaildir().Path, f.parser, f.logger), nil
	case "intake":
		return f.Intake(), nil
	default:
		return nil, core.WrapError(core.ErrInvalidConfig, "create mail source",
			fmt.Errorf("unsupported mail source: %s", name))
	}

	f.logger.Info("Created mail source", zap.String("source", name))
	executor := resilience.NewExecutor(resilience.SettingsFromConfig(f.cfg.GetResilience()), f.logger)
	return resilience.NewGuardedMailSource(source, executor, name+"-fetch"), nil
}

// Intake returns the SMTP intake server, creating it on first use. The
// caller starts and stops it.
func (f *SourceFactory) Intake() *intake.Server {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.intake == nil {
		f.intake = intake.NewServer(f.cfg.GetIntake(), f.parser, f.logger)
	}
	return f.intake
}
