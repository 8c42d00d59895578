package news

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"fewknow/internal/api"
	"fewknow/internal/logger"
	"fewknow/internal/types"
)

const (
	finnhubBaseURL = "https://finnhub.io/api/v1"

	maxDescriptionLength = 500
)

// FinnhubClient fetches company news from the Finnhub API.
type FinnhubClient struct {
	client  *api.Client
	apiKey  string
	baseURL string
}

// NewFinnhubClient creates a Finnhub news client. The API key is read
// from FINNHUB_API_KEY; an empty key makes every fetch fail, which the
// pipeline treats as a soft failure.
func NewFinnhubClient(timeout time.Duration) *FinnhubClient {
	return &FinnhubClient{
		client: api.NewClient(
			api.WithTimeout(timeout),
			api.WithLogging(true),
		),
		apiKey:  os.Getenv("FINNHUB_API_KEY"),
		baseURL: finnhubBaseURL,
	}
}

type finnhubArticle struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	Datetime int64  `json:"datetime"`
	URL      string `json:"url"`
}

// Collect fetches company news from sinceDate to today.
func (f *FinnhubClient) Collect(ctx context.Context, ticker, _ string, sinceDate string) ([]types.NewsArticle, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("FINNHUB_API_KEY not set")
	}

	q := url.Values{}
	q.Set("symbol", ticker)
	q.Set("from", sinceDate)
	q.Set("to", time.Now().Format("2006-01-02"))
	q.Set("token", f.apiKey)

	resp, err := f.client.GET(ctx, f.baseURL+"/company-news?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("finnhub news request failed: %w", err)
	}

	var raw []finnhubArticle
	if err := resp.ParseJSON(&raw); err != nil {
		return nil, err
	}

	articles := make([]types.NewsArticle, 0, len(raw))
	for _, a := range raw {
		if a.Headline == "" || a.Summary == "" {
			continue
		}
		// Finnhub omits datetime and source on some wire articles.
		date := time.Now()
		if a.Datetime != 0 {
			date = time.Unix(a.Datetime, 0)
		}
		source := a.Source
		if source == "" {
			source = "Unknown"
		}
		articles = append(articles, types.NewsArticle{
			Title:       a.Headline,
			Description: truncate(a.Summary, maxDescriptionLength),
			Source:      source,
			Date:        date.Format("2006-01-02"),
			URL:         a.URL,
			Author:      source,
		})
	}

	logger.Info(ctx, "News collected", "ticker", ticker, "articles", len(articles))
	return articles, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
