package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/adapters/mime"
	"github.com/mikey/mail-topic-scanner/internal/adapters/report"
	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/core"
	"github.com/mikey/mail-topic-scanner/internal/factory"
	"github.com/mikey/mail-topic-scanner/internal/logging"
	"github.com/mikey/mail-topic-scanner/internal/metrics"
	"github.com/mikey/mail-topic-scanner/internal/pipeline"
	"github.com/mikey/mail-topic-scanner/internal/rules"
	"github.com/mikey/mail-topic-scanner/internal/scheduler"
	"github.com/mikey/mail-topic-scanner/internal/topics"
)

// BuildContainer creates and configures a dependency injection container.
// configPath selects a config file; empty searches the default locations.
// Adapters are constructed lazily, on the first Invoke that needs them.
func BuildContainer(configPath string) (*dig.Container, error) {
	return BuildContainerWithConfig(func() (*config.Config, error) {
		return config.Load(configPath)
	})
}

// BuildContainerWithConfig is BuildContainer with a custom config source
func BuildContainerWithConfig(loadConfig func() (*config.Config, error)) (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		// Configuration and logging
		loadConfig,
		logging.InitLogger,

		// Factories
		rules.Default,
		factory.NewPipelineFactory,
		factory.NewLLMFactory,
		factory.NewStoreFactory,
		factory.NewGmailServices,
		factory.NewSourceFactory,
		factory.NewSenderFactory,
		mime.NewParser,

		// Categorization pipeline
		func(f *factory.PipelineFactory) *pipeline.Pipeline {
			return f.CreatePipeline()
		},
		func(p *pipeline.Pipeline) core.BatchProcessor {
			return p
		},
		func(f *factory.PipelineFactory) *topics.PromptBuilder {
			return f.CreatePromptBuilder()
		},

		// Ports
		func(f *factory.LLMFactory) (core.TopicGenerator, error) {
			return f.CreateTopicGenerator(context.Background())
		},
		func(f *factory.StoreFactory) (factory.ResultStore, error) {
			return f.CreateResultStore()
		},
		func(rs factory.ResultStore) core.ResultStore {
			return rs
		},
		func(f *factory.StoreFactory) (core.SeenIndex, error) {
			return f.CreateSeenIndex()
		},
		func(f *factory.SourceFactory) (core.MailSource, error) {
			return f.CreateMailSource(context.Background())
		},
		func(f *factory.SenderFactory) (core.ReportSender, error) {
			return f.CreateReportSender(context.Background())
		},
		func() core.ReportRenderer {
			return report.NewRenderer()
		},

		// Metrics
		metrics.NewScanMetrics,
		func(m *metrics.ScanMetrics) core.ScanMetrics {
			return m
		},
		func(cfg *config.Config, m *metrics.ScanMetrics, logger *zap.Logger) *metrics.Server {
			return metrics.NewServer(cfg.GetMetrics().ListenAddress, m.Handler(), logger)
		},

		// Scan service and scheduler
		scanOptions,
		newScanService,
		func(cfg *config.Config, svc *core.ScanService, logger *zap.Logger) (*scheduler.Scheduler, error) {
			return scheduler.New(cfg.GetScheduler(), svc, logger)
		},
	}

	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return nil, err
		}
	}

	return container, nil
}

func scanOptions(cfg *config.Config, senders *factory.SenderFactory) core.ScanOptions {
	mail := cfg.GetMail()
	rep := cfg.GetReport()

	opts := core.ScanOptions{
		Folder:        mail.Folder,
		MaxMessages:   mail.MaxMessages,
		DaysBack:      mail.DaysBack,
		UnreadOnly:    mail.UnreadOnly,
		MaxTopics:     cfg.GetTopics().MaxPerScan,
		ReportEnabled: rep.Enabled,
		ReportFrom:    senders.ReportFrom(),
	}
	if rep.Recipient != "" {
		opts.ReportTo = []string{rep.Recipient}
	}
	return opts
}

// scanParams gathers the scan service collaborators
type scanParams struct {
	dig.In

	Source    core.MailSource
	Processor core.BatchProcessor
	Generator core.TopicGenerator
	Store     core.ResultStore
	Seen      core.SeenIndex
	Renderer  core.ReportRenderer
	Sender    core.ReportSender
	Metrics   core.ScanMetrics
	Options   core.ScanOptions
	Logger    *zap.Logger
}

func newScanService(p scanParams) *core.ScanService {
	return core.NewScanService(
		p.Source,
		p.Processor,
		p.Generator,
		p.Store,
		p.Seen,
		p.Renderer,
		p.Sender,
		p.Metrics,
		p.Options,
		p.Logger,
	)
}
