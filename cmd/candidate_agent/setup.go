package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-recommender/internal/config"
	"github.com/jonathan/candidate-recommender/internal/embedding"
	"github.com/jonathan/candidate-recommender/internal/ingestion"
	"github.com/jonathan/candidate-recommender/internal/llm"
	"github.com/jonathan/candidate-recommender/internal/observability"
	"github.com/jonathan/candidate-recommender/internal/parsing"
	"github.com/jonathan/candidate-recommender/internal/pipeline"
	"github.com/jonathan/candidate-recommender/internal/ranking"
	"github.com/jonathan/candidate-recommender/internal/summary"
)

const (
	msgMissingJobDescription = "Please enter a job description."
	msgMissingResumes        = "Please upload at least one resume."
)

// environment is what every command needs: configuration, a logger and an
// optional LLM client
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	client llm.Client
}

// loadConfig reads the config file, environment and persistent flags
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Debug = true
	}
	if jsonLogs {
		cfg.Logging.JSON = true
	}

	logger, err := observability.NewLogger(cfg.Logging.JSON, cfg.Logging.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

// newEnvironment finishes setup after command flags have been applied to cfg.
// The LLM client is created only when a key is available or LLM extraction is forced.
func newEnvironment(ctx context.Context, cfg *config.Config, logger *zap.Logger, needLLM bool) (*environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	env := &environment{cfg: cfg, logger: logger}

	llmCfg, apiKey, err := cfg.LLMConfig()
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		if needLLM || parsing.Mode(cfg.Extraction.Mode) == parsing.ModeLLM {
			return nil, fmt.Errorf("%s is required for %s", llmCfg.Provider.APIKeyEnv(), llmCfg.Provider)
		}
		logger.Debug("no LLM API key, using pattern extraction", zap.String("provider", string(llmCfg.Provider)))
		return env, nil
	}

	client, err := llm.NewClient(ctx, llmCfg, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	env.client = client
	return env, nil
}

func (e *environment) Close() {
	if e.client != nil {
		_ = e.client.Close()
	}
	_ = e.logger.Sync()
}

func (e *environment) extractor() (parsing.Extractor, error) {
	return parsing.NewExtractor(parsing.Mode(e.cfg.Extraction.Mode), e.client, e.logger)
}

// rankerOptions builds pipeline options from the configuration. Summaries are
// attached only when an LLM client exists and summaryTopN > 0.
func (e *environment) rankerOptions(summaryTopN int) (pipeline.Options, error) {
	strategy, err := ranking.ParseStrategy(e.cfg.Ranking.Strategy)
	if err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		Embedder:      embedding.NewLazyHandle(e.cfg.EmbeddingOptions(e.logger)),
		Strategy:      strategy,
		Concurrency:   e.cfg.Ranking.Concurrency,
		ResumeTimeout: e.cfg.Ranking.ResumeLimit(),
		Logger:        e.logger,
	}
	if strategy == ranking.StrategySections {
		if opts.Extractor, err = e.extractor(); err != nil {
			return pipeline.Options{}, err
		}
	}
	if e.client != nil && summaryTopN > 0 {
		opts.Summarizer = summary.NewSummarizer(e.client, 0, e.logger)
		opts.SummaryTopN = summaryTopN
	}
	return opts, nil
}

// readJobDescription loads the job description from a file or a URL
func (e *environment) readJobDescription(ctx context.Context, path, url string) (string, error) {
	var text string
	switch {
	case url != "":
		if e.cfg.Fetch.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.cfg.Fetch.Timeout)
			defer cancel()
		}
		doc, err := ingestion.IngestFromURL(ctx, url, e.cfg.Fetch.UseBrowser, e.logger)
		if err != nil {
			return "", fmt.Errorf("failed to fetch job posting: %w", err)
		}
		text = doc.Text
	case path != "":
		doc, err := ingestion.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read job description: %w", err)
		}
		text = doc.Text
	}

	if strings.TrimSpace(text) == "" {
		return "", errors.New(msgMissingJobDescription)
	}
	return text, nil
}
