package interfaces

import (
	"context"

	"fewknow/internal/types"
)

// DiscussionAnalyzer extracts sentiment and themes from discussion items.
type DiscussionAnalyzer interface {
	AnalyzeDiscussion(ctx context.Context, ticker, earningsDate string, items []types.DiscussionItem) (*types.DiscussionAnalysis, error)
}

// ReportWriter synthesizes the narrative insight report from the collected
// context.
type ReportWriter interface {
	WriteReport(ctx context.Context, rc *types.ReportContext) (*types.InsightReport, error)
}
