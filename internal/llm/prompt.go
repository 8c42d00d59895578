// Package llm holds the prompt construction and response parsing shared
// by the Claude and OpenAI providers.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"fewknow/internal/types"
)

// AnalysisSystemPrompt frames the discussion-sentiment task.
const AnalysisSystemPrompt = `You are a financial analyst specializing in retail investor sentiment. You read raw forum discussion and produce structured, evidence-backed analysis. Output STRICT JSON only, no markdown fences, no commentary.`

// ReportSystemPrompt frames the narrative synthesis task.
const ReportSystemPrompt = `You are a financial journalist writing a post-earnings insight report. You connect price action, news coverage and retail sentiment into one coherent story. Output STRICT JSON only, no markdown fences, no commentary.`

const analysisSchema = `{
  "sentiment_timeline": [{"period": "string", "sentiment": "bullish|bearish|mixed", "confidence": "high|medium|low", "key_drivers": ["string"]}],
  "top_themes": [{"theme": "string", "mention_count": 0, "sentiment": "string", "example_quotes": ["string"]}],
  "notable_insights": [{"date": "YYYY-MM-DD", "content_summary": "string", "why_notable": "string", "score": 0}],
  "contrarian_takes": ["string"],
  "worry_vs_optimism": {"worries": ["string"], "optimism": ["string"]},
  "overall_summary": "string"
}`

const reportSchema = `{
  "headline": "string",
  "story": "string",
  "retail_perspective": "string",
  "the_gap": "string",
  "whats_next": "string",
  "key_dates": [{"date": "YYYY-MM-DD", "description": "string", "source": "string"}],
  "sources": ["string"]
}`

// BuildAnalysisPrompt renders the user prompt for discussion analysis.
// Only the top maxItems items by score are included to keep the context
// bounded.
func BuildAnalysisPrompt(ticker, earningsDate string, items []types.DiscussionItem, maxItems int) string {
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}
	itemsJSON, _ := json.MarshalIndent(items, "", "  ")

	return fmt.Sprintf(`Analyze retail investor discussion about %s since its earnings report on %s.

Discussion items (submissions and comments, sorted by score):
%s

Produce analysis as JSON matching exactly this schema:
%s

Respond ONLY with the JSON object.`, ticker, earningsDate, string(itemsJSON), analysisSchema)
}

// BuildReportPrompt renders the user prompt for the narrative report.
func BuildReportPrompt(rc *types.ReportContext) string {
	ctxJSON, _ := json.MarshalIndent(rc, "", "  ")

	return fmt.Sprintf(`Write a post-earnings insight report for %s from the following context:
%s

Produce the report as JSON matching exactly this schema:
%s

The "the_gap" field should contrast what institutional coverage says with what retail investors believe. Respond ONLY with the JSON object.`, rc.Ticker, string(ctxJSON), reportSchema)
}

// ExtractJSON pulls the first JSON object out of model output, tolerating
// prose or markdown fences around it.
func ExtractJSON(text string) (string, error) {
	t := strings.TrimSpace(text)
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object found in model output")
	}
	return t[start : end+1], nil
}

// ParseAnalysis decodes a discussion analysis from raw model output.
func ParseAnalysis(text string) (*types.DiscussionAnalysis, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	var a types.DiscussionAnalysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("failed to parse analysis output: %w", err)
	}
	return &a, nil
}

// ParseReport decodes an insight report from raw model output.
func ParseReport(text string) (*types.InsightReport, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	var r types.InsightReport
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("failed to parse report output: %w", err)
	}
	return &r, nil
}
