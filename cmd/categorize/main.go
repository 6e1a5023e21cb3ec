package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/adapters/console"
	"github.com/mikey/mail-topic-scanner/internal/adapters/mime"
	"github.com/mikey/mail-topic-scanner/internal/analyzer"
	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/factory"
	"github.com/mikey/mail-topic-scanner/internal/logging"
	"github.com/mikey/mail-topic-scanner/internal/rules"
)

var (
	// Categorization flags
	excludeDomains  = flag.String("exclude-domains", "", "Comma-separated list of sender domains to exclude")
	excludeKeywords = flag.String("exclude-keywords", "", "Comma-separated list of keywords to exclude")
	threshold       = flag.Float64("threshold", 0.3, "Minimum score for a category match")
	minWords        = flag.Int("min-words", 50, "Minimum body words for topic eligibility")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging and per-category scores")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger, os.Stdin, os.Stdout); err != nil {
		logger.Fatal("Categorization failed", zap.Error(err))
	}
}

func run(logger *zap.Logger, stdin io.Reader, stdout io.Writer) error {
	var cfg *config.Config
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return err
		}
		logger.Info("Loaded configuration from file", zap.String("file", loaded.GetViper().ConfigFileUsed()))
		cfg = loaded
	} else {
		cfg = createConfigFromFlags()
	}

	var reader io.Reader = stdin
	fallbackID := "stdin"
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		reader = file
		fallbackID = *inputFile
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		logger.Info("Reading email from stdin")
	}

	msg, err := mime.NewParser(logger).Parse(reader, fallbackID)
	if err != nil {
		return err
	}

	pf := factory.NewPipelineFactory(cfg, logger, rules.Default())
	cat := pf.CreateCategorizer()
	an := pf.CreateAnalyzer()
	printer := console.NewPrinter(stdout, *verbose)

	printer.PrintMessage(msg)

	startTime := time.Now()
	result := cat.Categorize(msg)
	printer.PrintCategorization(result, time.Since(startTime))

	if !result.Failed() && result.Category.IsInScope() {
		analysis := an.Analyze(msg)
		eligible := an.ShouldProcess(analysis)
		printer.PrintAnalysis(analysis, an.Assess(msg), eligible, analyzer.Priority(analysis))
	}
	return nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("filter.exclude_domains", splitList(*excludeDomains))
	v.Set("filter.exclude_keywords", splitList(*excludeKeywords))
	v.Set("filter.threshold", *threshold)
	v.Set("filter.min_words", *minWords)

	return config.NewFromViper(v)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
