package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"fewknow/internal/interfaces"
	"fewknow/internal/jobs"
	"fewknow/internal/llm/claude"
	"fewknow/internal/llm/llmobs"
	"fewknow/internal/llm/noop"
	"fewknow/internal/llm/openai"
	"fewknow/internal/logger"
	"fewknow/internal/market"
	"fewknow/internal/news"
	"fewknow/internal/reddit"
	"fewknow/internal/reportlog"
	"fewknow/internal/store"
	"fewknow/internal/trace"
	"fewknow/internal/types"
)

// initializeSystem initializes env, logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// initializeReportLog sets up the result logger and compresses old
// files if retention is configured
func initializeReportLog(ctx context.Context) *reportlog.Logger {
	rl := reportlog.New(os.Getenv("FEWKNOW_LOG_DIR"))

	if v := os.Getenv("FEWKNOW_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := rl.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old report logs", "error", err)
		}
	}
	return rl
}

// initializeLLM returns the configured analyzer/writer with observability
func initializeLLM(ctx context.Context, cfg *store.Config) llmobs.Provider {
	var provider llmobs.Provider

	switch cfg.LLM.Provider {
	case "OPENAI":
		provider = openai.NewClient(cfg)
	case "CLAUDE":
		provider = claude.NewClient(cfg)
	default:
		provider = noop.NewAnalyzer()
		logger.Warn(ctx, "No LLM provider configured - using deterministic noop analyzer")
	}

	return llmobs.Wrap(provider)
}

// initializeDiscussions returns the Reddit collector, degrading to a
// stub that fails every job step when credentials are missing
func initializeDiscussions(ctx context.Context, cfg *store.Config) interfaces.DiscussionCollector {
	collector, err := reddit.NewCollector(cfg)
	if err != nil {
		logger.Warn(ctx, "Reddit not configured - discussion collection will fail jobs", "error", err.Error())
		return unavailableCollector{err: err}
	}
	return collector
}

// unavailableCollector surfaces the missing-credentials error at job
// time instead of refusing to start the server.
type unavailableCollector struct{ err error }

func (u unavailableCollector) Collect(context.Context, string, string, string) ([]types.DiscussionItem, error) {
	return nil, u.err
}

// buildPipeline wires the whole pipeline
func buildPipeline(ctx context.Context, cfg *store.Config) *jobs.Pipeline {
	yahoo := market.NewYahooClient()
	llm := initializeLLM(ctx, cfg)

	st := jobs.NewStore()
	return jobs.NewPipeline(cfg, st, jobs.NewPublisher(st), jobs.Deps{
		Validator:   yahoo,
		Earnings:    yahoo,
		Performance: market.NewAnalyzer(yahoo),
		News:        news.NewService(time.Duration(cfg.News.TimeoutSeconds)*time.Second, cfg.News.ScrapeFallback, cfg.News.MaxReportArticles),
		Discussions: initializeDiscussions(ctx, cfg),
		Analyzer:    llm,
		Writer:      llm,
		ResultLog:   initializeReportLog(ctx),
	})
}
