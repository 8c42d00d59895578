package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"fewknow/internal/llm"
	"fewknow/internal/store"
	"fewknow/internal/trace"
	"fewknow/internal/types"
)

// Client implements discussion analysis and report writing using the
// OpenAI chat completions API.
type Client struct {
	cfg  *store.Config
	http *http.Client
}

// NewClient creates an OpenAI-backed analyzer/writer
func NewClient(cfg *store.Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 120 * time.Second},
	}
}

// AnalyzeDiscussion runs the sentiment analysis prompt over discussion items.
func (c *Client) AnalyzeDiscussion(ctx context.Context, ticker, earningsDate string, items []types.DiscussionItem) (*types.DiscussionAnalysis, error) {
	ctx, span := trace.StartSpan(ctx, "openai-analyze-discussion")
	defer span.End()

	user := llm.BuildAnalysisPrompt(ticker, earningsDate, items, c.cfg.LLM.MaxContextItems)
	text, err := c.complete(ctx, llm.AnalysisSystemPrompt, user, c.cfg.LLM.AnalysisMaxTokens)
	if err != nil {
		return nil, err
	}
	return llm.ParseAnalysis(text)
}

// WriteReport runs the narrative synthesis prompt over the report context.
func (c *Client) WriteReport(ctx context.Context, rc *types.ReportContext) (*types.InsightReport, error) {
	ctx, span := trace.StartSpan(ctx, "openai-write-report")
	defer span.End()

	user := llm.BuildReportPrompt(rc)
	text, err := c.complete(ctx, llm.ReportSystemPrompt, user, c.cfg.LLM.ReportMaxTokens)
	if err != nil {
		return nil, err
	}
	return llm.ParseReport(text)
}

func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", errors.New("OPENAI_API_KEY missing")
	}

	body := map[string]any{
		"model": c.cfg.LLM.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"max_tokens": maxTokens,
	}
	bb, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}

	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
