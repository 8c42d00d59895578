package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
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
// Anthropic Claude messages API.
type Client struct {
	cfg      *store.Config
	endpoint string
	http     *http.Client
}

// NewClient creates a Claude-backed analyzer/writer
func NewClient(cfg *store.Config) *Client {
	// default messages endpoint (public Anthropic)
	endpoint := "https://api.anthropic.com/v1/messages"
	// If you use a proxy/bedrock/vertex, set endpoint via CLAUDE_API_ENDPOINT env var
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Client{
		cfg:      cfg,
		endpoint: endpoint,
		http:     &http.Client{Timeout: 120 * time.Second},
	}
}

// AnalyzeDiscussion runs the sentiment analysis prompt over discussion items.
func (c *Client) AnalyzeDiscussion(ctx context.Context, ticker, earningsDate string, items []types.DiscussionItem) (*types.DiscussionAnalysis, error) {
	ctx, span := trace.StartSpan(ctx, "claude-analyze-discussion")
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
	ctx, span := trace.StartSpan(ctx, "claude-write-report")
	defer span.End()

	user := llm.BuildReportPrompt(rc)
	text, err := c.complete(ctx, llm.ReportSystemPrompt, user, c.cfg.LLM.ReportMaxTokens)
	if err != nil {
		return nil, err
	}
	return llm.ParseReport(text)
}

func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return "", errors.New("ANTHROPIC_API_KEY missing")
	}

	reqBody := map[string]any{
		"model":      c.cfg.LLM.Model,
		"system":     system,
		"messages":   []map[string]string{{"role": "user", "content": user}},
		"max_tokens": maxTokens,
	}
	bb, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("claude http %d: %s", resp.StatusCode, string(respBytes))
	}

	// Standard messages response: content blocks with text.
	var r struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBytes, &r); err == nil {
		var parts []string
		for _, block := range r.Content {
			if block.Type == "text" && block.Text != "" {
				parts = append(parts, block.Text)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n"), nil
		}
	}

	// Proxies sometimes return bare text; let the JSON extractor sort it out.
	return string(respBytes), nil
}
