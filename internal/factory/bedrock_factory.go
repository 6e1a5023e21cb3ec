package factory

import (
	"context"

	"github.com/mikey/mail-topic-scanner/internal/adapters/bedrock"
)

// createBedrockCompleter uses the default AWS credential chain for the region
func (f *LLMFactory) createBedrockCompleter(ctx context.Context) (*bedrock.BedrockClient, error) {
	bc := f.cfg.GetBedrock()

	return bedrock.NewBedrockClient(
		ctx,
		bc.Region,
		bc.ModelID,
		bc.MaxTokens,
		bc.Temperature,
		bc.TopP,
		f.logger,
	)
}
