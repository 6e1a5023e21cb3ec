package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/adapters/console"
	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/core"
	"github.com/mikey/mail-topic-scanner/internal/di"
	"github.com/mikey/mail-topic-scanner/internal/factory"
	"github.com/mikey/mail-topic-scanner/internal/metrics"
	"github.com/mikey/mail-topic-scanner/internal/scheduler"
)

func initConfig(c *cli.Context) error {
	path := c.String("output")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote default configuration to %s\n", path)
	return nil
}

func validate(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Configuration is valid")
	return nil
}

// buildContainer loads the config with command line overrides applied and
// checks it before anything is constructed
func buildContainer(c *cli.Context) (*dig.Container, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	applyOverrides(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return di.BuildContainerWithConfig(func() (*config.Config, error) {
		return cfg, nil
	})
}

func applyOverrides(c *cli.Context, cfg *config.Config) {
	if c.IsSet("folder") {
		cfg.Set("mail.folder", c.String("folder"))
	}
	if c.IsSet("max-messages") {
		cfg.Set("mail.max_messages", c.Int("max-messages"))
	}
	if c.IsSet("days-back") {
		cfg.Set("mail.days_back", c.Int("days-back"))
	}
	if c.IsSet("unread-only") {
		cfg.Set("mail.unread_only", c.Bool("unread-only"))
	}
	if c.Bool("no-report") {
		cfg.Set("report.enabled", false)
	}
}

// resources are the collaborators that hold connections or goroutines
type resources struct {
	dig.In

	Logger *zap.Logger
	Store  factory.ResultStore
	LLM    *factory.LLMFactory
}

func (r resources) close() {
	if err := r.LLM.Close(); err != nil {
		r.Logger.Error("Failed to close LLM client", zap.Error(err))
	}
	r.Store.Stop()
	_ = r.Logger.Sync()
}

func scan(c *cli.Context) error {
	container, err := buildContainer(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return container.Invoke(func(res resources, svc *core.ScanService) error {
		defer res.close()

		out, err := svc.RunScan(ctx)
		if out != nil {
			console.NewPrinter(c.App.Writer, c.Bool("verbose")).PrintScan(out)
		}
		return err
	})
}

func schedule(c *cli.Context) error {
	container, err := buildContainer(c)
	if err != nil {
		return err
	}

	return container.Invoke(func(
		res resources,
		cfg *config.Config,
		sched *scheduler.Scheduler,
		metricsServer *metrics.Server,
		sources *factory.SourceFactory,
	) error {
		defer res.close()
		logger := res.Logger

		if cfg.GetMetrics().Enabled {
			if err := metricsServer.Start(); err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := metricsServer.Stop(ctx); err != nil {
					logger.Error("Failed to stop metrics server", zap.Error(err))
				}
			}()
		}

		if cfg.GetMail().Source == "intake" {
			intake := sources.Intake()
			if err := intake.Start(); err != nil {
				return err
			}
			defer func() {
				if err := intake.Stop(); err != nil {
					logger.Error("Failed to stop intake server", zap.Error(err))
				}
			}()
		}

		sched.Start()

		// Handle graceful shutdown
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Info("Shutting down...", zap.String("signal", sig.String()))
		case <-c.Context.Done():
		}

		sched.Stop()
		logger.Info("Shutdown complete")
		return nil
	})
}

func status(c *cli.Context) error {
	// status only reads the store, so the config is not validated
	container, err := di.BuildContainer(c.String("config"))
	if err != nil {
		return err
	}

	limit := c.Int("limit")
	return container.Invoke(func(res resources, store core.ResultStore) error {
		defer res.close()
		ctx := c.Context

		stats, err := store.Statistics(ctx)
		if err != nil {
			return err
		}
		messages, err := store.RecentMessages(ctx, limit)
		if err != nil {
			return err
		}
		topics, err := store.RecentTopics(ctx, limit)
		if err != nil {
			return err
		}

		console.NewPrinter(c.App.Writer, c.Bool("verbose")).PrintStatus(stats, messages, topics)
		return nil
	})
}
