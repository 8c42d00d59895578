package llmobs

import (
	"context"

	"fewknow/internal/interfaces"
	"fewknow/internal/logger"
	"fewknow/internal/types"
)

// observable wraps an analyzer/writer pair with logging and tracing.
type observable struct {
	analyzer interfaces.DiscussionAnalyzer
	writer   interfaces.ReportWriter
}

var (
	_ interfaces.DiscussionAnalyzer = (*observable)(nil)
	_ interfaces.ReportWriter       = (*observable)(nil)
)

// Provider is the combined surface every LLM backend implements.
type Provider interface {
	interfaces.DiscussionAnalyzer
	interfaces.ReportWriter
}

// Wrap adds observability middleware around an LLM provider
func Wrap(p Provider) Provider {
	return &observable{analyzer: p, writer: p}
}

// AnalyzeDiscussion delegates with timing and span instrumentation.
func (o *observable) AnalyzeDiscussion(ctx context.Context, ticker, earningsDate string, items []types.DiscussionItem) (*types.DiscussionAnalysis, error) {
	op := logger.StartOperation(ctx, "llm.AnalyzeDiscussion", "ticker", ticker, "items", len(items))
	ctx = op.GetContext()

	analysis, err := o.analyzer.AnalyzeDiscussion(ctx, ticker, earningsDate, items)
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}

	op.End("themes", len(analysis.TopThemes), "insights", len(analysis.NotableInsights))
	logger.Info(ctx, "Discussion analysis received",
		"ticker", ticker,
		"themes", len(analysis.TopThemes),
		"insights", len(analysis.NotableInsights),
	)
	return analysis, nil
}

// WriteReport delegates with timing and span instrumentation.
func (o *observable) WriteReport(ctx context.Context, rc *types.ReportContext) (*types.InsightReport, error) {
	op := logger.StartOperation(ctx, "llm.WriteReport", "ticker", rc.Ticker)
	ctx = op.GetContext()

	report, err := o.writer.WriteReport(ctx, rc)
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}

	op.End()
	logger.Info(ctx, "Insight report received", "ticker", rc.Ticker, "headline", report.Headline)
	return report, nil
}
