package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/core"
	"github.com/mikey/mail-topic-scanner/internal/resilience"
	"github.com/mikey/mail-topic-scanner/internal/topics"
)

// LLMFactory creates topic generators backed by a language model provider
type LLMFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	prompts *topics.PromptBuilder

	mu      sync.Mutex
	closers []io.Closer
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, prompts *topics.PromptBuilder) *LLMFactory {
	return &LLMFactory{
		cfg:     cfg,
		logger:  logger,
		prompts: prompts,
	}
}

// CreateTopicGenerator creates the generator for topics.provider, wrapped in
// retries and a circuit breaker. Provider "none" disables generation.
func (f *LLMFactory) CreateTopicGenerator(ctx context.Context) (core.TopicGenerator, error) {
	provider := f.cfg.GetTopics().Provider

	var (
		completer topics.Completer
		err       error
	)
	switch provider {
	case "none":
		f.logger.Info("Topic generation disabled")
		return topics.Disabled{}, nil
	case "bedrock":
		completer, err = f.createBedrockCompleter(ctx)
	case "gemini":
		completer, err = f.createGeminiCompleter(ctx)
	case "openai":
		completer, err = f.createOpenAICompleter()
	default:
		return nil, core.WrapError(core.ErrInvalidConfig, "create topic generator",
			fmt.Errorf("unsupported LLM provider: %s", provider))
	}
	if err != nil {
		return nil, err
	}

	if closer, ok := completer.(io.Closer); ok {
		f.mu.Lock()
		f.closers = append(f.closers, closer)
		f.mu.Unlock()
	}

	f.logger.Info("Created topic generator", zap.String("provider", provider))
	generator := topics.NewGenerator(provider, completer, f.prompts, f.logger)
	executor := resilience.NewExecutor(resilience.SettingsFromConfig(f.cfg.GetResilience()), f.logger)
	return resilience.NewGuardedTopicGenerator(generator, executor, provider+"-topics"), nil
}

// Close releases provider clients created by the factory
func (f *LLMFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for _, c := range f.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	f.closers = nil
	return errors.Join(errs...)
}
