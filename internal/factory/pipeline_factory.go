package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/analyzer"
	"github.com/mikey/mail-topic-scanner/internal/categorizer"
	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/pipeline"
	"github.com/mikey/mail-topic-scanner/internal/rules"
	"github.com/mikey/mail-topic-scanner/internal/topics"
	"github.com/mikey/mail-topic-scanner/internal/utils"
)

// PipelineFactory creates the categorization pipeline and prompt builder
// from the filter and topics settings
type PipelineFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	book   *rules.RuleBook
}

// NewPipelineFactory creates a new pipeline factory over the rule book
func NewPipelineFactory(cfg *config.Config, logger *zap.Logger, book *rules.RuleBook) *PipelineFactory {
	return &PipelineFactory{
		cfg:    cfg,
		logger: logger,
		book:   book,
	}
}

// CreateCategorizer creates a categorizer with the configured exclusions
// and threshold
func (f *PipelineFactory) CreateCategorizer() *categorizer.Categorizer {
	fc := f.cfg.GetFilter()
	return categorizer.New(f.book, categorizer.Options{
		ExcludeDomains:  fc.ExcludeDomains,
		ExcludeKeywords: fc.ExcludeKeywords,
		Threshold:       fc.Threshold,
	}, f.logger)
}

// CreateAnalyzer creates a content analyzer with the configured word floor
func (f *PipelineFactory) CreateAnalyzer() *analyzer.Analyzer {
	return analyzer.New(f.book, analyzer.Options{MinWords: f.cfg.GetFilter().MinWords}, f.logger)
}

// CreatePipeline creates the batch pipeline
func (f *PipelineFactory) CreatePipeline() *pipeline.Pipeline {
	return pipeline.New(f.CreateCategorizer(), f.CreateAnalyzer(), f.logger)
}

// CreatePromptBuilder creates the topic prompt builder
func (f *PipelineFactory) CreatePromptBuilder() *topics.PromptBuilder {
	return topics.NewPromptBuilder(utils.NewTextProcessor(f.logger), f.cfg.GetTopics().BodyChars)
}
