package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"fewknow/internal/logger"
	"fewknow/internal/types"
)

const scraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scraper pulls headlines from Google News when the Finnhub API is
// unavailable. Scraped articles carry less metadata than API results
// but keep the report grounded in recent coverage.
type Scraper struct {
	timeout time.Duration
}

// NewScraper creates a Google News scraper
func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{timeout: timeout}
}

// ScrapeGoogleNews searches Google News for recent company coverage.
func (s *Scraper) ScrapeGoogleNews(ctx context.Context, ticker, companyName string, maxArticles int) ([]types.NewsArticle, error) {
	articles := []types.NewsArticle{}
	today := time.Now().Format("2006-01-02")

	c := colly.NewCollector(
		colly.AllowedDomains("news.google.com", "www.google.com"),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", scraperUserAgent)
	})

	c.OnHTML("article", func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}

		title := strings.TrimSpace(e.ChildText("h3, h4"))
		link := e.ChildAttr("a", "href")
		if title == "" || link == "" {
			return
		}

		// Google News article links are relative redirects
		if strings.HasPrefix(link, "./articles/") {
			link = "https://news.google.com" + link[1:]
		}

		source := firstText(e.DOM, "div[data-n-tid], .vr1PYe")
		published := today
		if dt, ok := e.DOM.Find("time").Attr("datetime"); ok && len(dt) >= 10 {
			published = dt[:10]
		}

		articles = append(articles, types.NewsArticle{
			Title:  title,
			Source: source,
			Date:   published,
			URL:    link,
			Author: source,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Google News scraping error", err, "url", r.Request.URL.String())
	})

	query := url.QueryEscape(fmt.Sprintf("%s %s stock earnings", ticker, companyName))
	searchURL := fmt.Sprintf("https://news.google.com/search?q=%s&hl=en-US&gl=US&ceid=US:en", query)

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to scrape Google News: %w", err)
	}
	c.Wait()

	logger.Info(ctx, "Google News scraping completed", "ticker", ticker, "articles", len(articles))
	return articles, nil
}

// firstText returns the trimmed text of the first selector that
// matches anything.
func firstText(sel *goquery.Selection, selectors string) string {
	text := strings.TrimSpace(sel.Find(selectors).First().Text())
	if text == "" {
		return "GoogleNews"
	}
	return text
}
