package news

import (
	"context"
	"time"

	"fewknow/internal/logger"
	"fewknow/internal/types"
)

// Service collects company news, preferring the Finnhub API and
// optionally falling back to scraping Google News.
type Service struct {
	finnhub     *FinnhubClient
	scraper     *Scraper
	useFallback bool
	maxArticles int
}

// NewService creates a news collector
func NewService(timeout time.Duration, useFallback bool, maxArticles int) *Service {
	return &Service{
		finnhub:     NewFinnhubClient(timeout),
		scraper:     NewScraper(timeout),
		useFallback: useFallback,
		maxArticles: maxArticles,
	}
}

// Collect fetches recent news for the ticker since sinceDate.
func (s *Service) Collect(ctx context.Context, ticker, companyName, sinceDate string) ([]types.NewsArticle, error) {
	articles, err := s.finnhub.Collect(ctx, ticker, companyName, sinceDate)
	if err == nil {
		return articles, nil
	}

	if !s.useFallback {
		return nil, err
	}

	logger.Warn(ctx, "Finnhub news fetch failed, falling back to scraping", "ticker", ticker, "error", err.Error())
	return s.scraper.ScrapeGoogleNews(ctx, ticker, companyName, s.maxArticles)
}
