package factory

import (
	"fmt"

	"github.com/mikey/mail-topic-scanner/internal/adapters/openai"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

func (f *LLMFactory) createOpenAICompleter() (*openai.OpenAIClient, error) {
	oc := f.cfg.GetOpenAI()
	if oc.APIKey == "" {
		return nil, core.WrapError(core.ErrInvalidConfig, "create openai client",
			fmt.Errorf("openai API key is required"))
	}

	return openai.NewOpenAIClient(
		oc.APIKey,
		oc.ModelName,
		oc.MaxTokens,
		oc.Temperature,
		oc.TopP,
		f.logger,
	), nil
}
