package interfaces

import (
	"context"

	"fewknow/internal/types"
)

// NewsCollector returns news articles published since the earnings date.
// Missing provider credentials yield an empty slice, not an error.
type NewsCollector interface {
	Collect(ctx context.Context, ticker, companyName, sinceDate string) ([]types.NewsArticle, error)
}

// DiscussionCollector returns a merged, score-ranked, size-capped sequence
// of retail discussion items. An empty slice is a valid outcome (no
// discussion found); an error means collection itself failed.
type DiscussionCollector interface {
	Collect(ctx context.Context, ticker, companyName, sinceDate string) ([]types.DiscussionItem, error)
}
