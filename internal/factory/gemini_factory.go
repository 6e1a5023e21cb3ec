package factory

import (
	"context"
	"fmt"

	"github.com/mikey/mail-topic-scanner/internal/adapters/gemini"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

func (f *LLMFactory) createGeminiCompleter(ctx context.Context) (*gemini.GeminiClient, error) {
	gc := f.cfg.GetGemini()
	if gc.APIKey == "" {
		return nil, core.WrapError(core.ErrInvalidConfig, "create gemini client",
			fmt.Errorf("gemini API key is required"))
	}

	return gemini.NewGeminiClient(
		ctx,
		gc.APIKey,
		gc.ModelName,
		gc.MaxTokens,
		gc.Temperature,
		gc.TopP,
		f.logger,
	)
}
