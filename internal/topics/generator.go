package topics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

// Completer sends one prompt to a model and returns its raw text answer
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Generator implements core.TopicGenerator on top of a Completer
type Generator struct {
	provider  string
	completer Completer
	prompts   *PromptBuilder
	logger    *zap.Logger
	now       func() time.Time
}

// NewGenerator creates a new topic generator for the named provider
func NewGenerator(provider string, completer Completer, prompts *PromptBuilder, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		provider:  provider,
		completer: completer,
		prompts:   prompts,
		logger:    logger,
		now:       time.Now,
	}
}

// Provider returns the provider name stamped on generated topics
func (g *Generator) Provider() string {
	return g.provider
}

// GenerateTopics asks the model for topics covering the request's messages
func (g *Generator) GenerateTopics(ctx context.Context, req core.TopicRequest) ([]core.Topic, error) {
	if len(req.Messages) == 0 {
		return nil, nil
	}

	prompt := g.prompts.Build(req)
	g.logger.Debug("Requesting topics",
		zap.String("provider", g.provider),
		zap.String("category", string(req.Category)),
		zap.Int("messages", len(req.Messages)),
		zap.Int("prompt_bytes", len(prompt)))

	text, err := g.completer.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		return nil, core.WrapError(core.ErrGeneration, g.provider+" completion", err)
	}

	topics, err := Parse(text, g.provider, req, g.now())
	if err != nil {
		g.logger.Warn("Unparseable model response",
			zap.String("provider", g.provider),
			zap.Int("response_bytes", len(text)),
			zap.Error(err))
		return nil, core.WrapError(core.ErrGeneration, g.provider+" response", err)
	}

	g.logger.Info("Generated topics",
		zap.String("provider", g.provider),
		zap.String("category", string(req.Category)),
		zap.Int("count", len(topics)))

	return topics, nil
}

// Disabled is the generator used when topic generation is turned off
type Disabled struct{}

func (Disabled) GenerateTopics(context.Context, core.TopicRequest) ([]core.Topic, error) {
	return nil, nil
}
