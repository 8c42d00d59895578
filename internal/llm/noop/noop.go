package noop

import (
	"context"
	"fmt"

	"fewknow/internal/logger"
	"fewknow/internal/types"
)

// Analyzer is a deterministic fallback used when no LLM provider is
// configured. It summarizes discussion mechanically so the pipeline
// stays runnable in development.
type Analyzer struct{}

// NewAnalyzer returns a new noop analyzer/writer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// AnalyzeDiscussion builds a mechanical summary from item counts and scores.
func (a *Analyzer) AnalyzeDiscussion(ctx context.Context, ticker, earningsDate string, items []types.DiscussionItem) (*types.DiscussionAnalysis, error) {
	logger.Debug(ctx, "Noop analyzer called", "ticker", ticker, "items", len(items))

	insights := []types.InsightfulPost{}
	for i, it := range items {
		if i >= 3 {
			break
		}
		insights = append(insights, types.InsightfulPost{
			Date:           it.Date,
			ContentSummary: it.Title,
			WhyNotable:     "highest-scored discussion item",
			Score:          it.Score,
		})
	}

	return &types.DiscussionAnalysis{
		SentimentTimeline: []types.SentimentPeriod{{
			Period:     "since earnings",
			Sentiment:  "mixed",
			Confidence: "low",
			KeyDrivers: []string{"no LLM provider configured"},
		}},
		NotableInsights: insights,
		WorryVsOptimism: map[string][]string{"worries": {}, "optimism": {}},
		OverallSummary: fmt.Sprintf("%d discussion items collected for %s since %s. Configure an LLM provider for sentiment analysis.",
			len(items), ticker, earningsDate),
	}, nil
}

// WriteReport builds a mechanical report from the structured context.
func (a *Analyzer) WriteReport(ctx context.Context, rc *types.ReportContext) (*types.InsightReport, error) {
	logger.Debug(ctx, "Noop report writer called", "ticker", rc.Ticker)

	headline := fmt.Sprintf("%s post-earnings summary", rc.Ticker)
	story := fmt.Sprintf("Price data collected for %s.", rc.Ticker)
	if rc.Performance != nil {
		story = fmt.Sprintf("%s is %s since earnings (%s vs S&P 500), volatility %s.",
			rc.Ticker, rc.Performance.SinceEarnings, rc.Performance.VsSP500, rc.Performance.Volatility)
	}

	return &types.InsightReport{
		Headline:          headline,
		Story:             story,
		RetailPerspective: "No LLM provider configured; discussion analysis unavailable.",
		TheGap:            "",
		WhatsNext:         "",
		Sources:           []string{},
	}, nil
}
