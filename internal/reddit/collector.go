package reddit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"fewknow/internal/logger"
	"fewknow/internal/store"
	"fewknow/internal/types"
)

// botAuthor reports whether the submission author is absent (deleted
// account) or an AutoModerator-style bot.
func botAuthor(author string) bool {
	return author == "" || strings.Contains(strings.ToLower(author), "automod")
}

// Collector gathers post-earnings discussion across a set of
// subreddits and distills it into a ranked item list.
type Collector struct {
	client *Client
	cfg    *store.Config
}

// NewCollector creates a discussion collector. It fails when Reddit
// credentials are not configured.
func NewCollector(cfg *store.Config) (*Collector, error) {
	client, err := NewClient(30 * time.Second)
	if err != nil {
		return nil, err
	}
	return &Collector{client: client, cfg: cfg}, nil
}

// Collect searches the configured forums for discussion of the ticker
// since sinceDate and returns up to MaxItems items: qualifying
// submissions plus high-quality comments from the top submissions,
// sorted by score descending.
func (c *Collector) Collect(ctx context.Context, ticker, companyName, sinceDate string) ([]types.DiscussionItem, error) {
	cutoff, err := time.Parse("2006-01-02", sinceDate)
	if err != nil {
		return nil, fmt.Errorf("invalid since date %q: %w", sinceDate, err)
	}

	if err := c.client.Authenticate(ctx); err != nil {
		return nil, err
	}
	defer c.client.Revoke(ctx)

	rc := c.cfg.Reddit
	queries := []string{"$" + ticker}
	if companyName != "" && companyName != ticker {
		queries = append(queries, companyName)
	}

	seen := map[string]bool{}
	candidates := []submissionData{}
	for _, forum := range rc.Forums {
		for _, query := range queries {
			subs, err := c.client.Search(ctx, forum, query, rc.SearchWindow, rc.SearchLimit)
			if err != nil {
				logger.Warn(ctx, "Subreddit search failed", "subreddit", forum, "query", query, "error", err.Error())
				continue
			}
			for _, s := range subs {
				if seen[s.ID] {
					continue
				}
				if !c.accept(s, cutoff) {
					continue
				}
				seen[s.ID] = true
				candidates = append(candidates, s)
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	items := make([]types.DiscussionItem, 0, len(candidates))
	for _, s := range candidates {
		items = append(items, submissionItem(s, rc.MaxTextLength))
	}

	// Comments only from the highest-scored submissions.
	limit := rc.MaxCommentSubmissions
	if limit > len(candidates) {
		limit = len(candidates)
	}
	filter := commentFilter{
		MinScore:  rc.MinCommentScore,
		MinLength: rc.MinCommentLength,
		MaxText:   rc.MaxTextLength,
		Limit:     rc.MaxCommentsPerSubmission,
	}
	for _, s := range candidates[:limit] {
		roots, err := c.client.Comments(ctx, s.ID)
		if err != nil {
			logger.Warn(ctx, "Comment fetch failed", "submission", s.ID, "error", err.Error())
			continue
		}
		items = append(items, filterComments(roots, s, filter)...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if len(items) > rc.MaxItems {
		items = items[:rc.MaxItems]
	}

	logger.Info(ctx, "Discussion collected",
		"ticker", ticker,
		"submissions", len(candidates),
		"items", len(items),
	)
	return items, nil
}

func (c *Collector) accept(s submissionData, cutoff time.Time) bool {
	if botAuthor(s.Author) {
		return false
	}
	if s.Score < c.cfg.Reddit.MinSubmissionScore {
		return false
	}
	return !time.Unix(int64(s.CreatedUTC), 0).Before(cutoff)
}

func submissionItem(s submissionData, maxText int) types.DiscussionItem {
	text := s.Title
	if s.Selftext != "" {
		text = s.Title + "\n\n" + s.Selftext
	}
	return types.DiscussionItem{
		Type:      types.ItemSubmission,
		Date:      formatCreated(s.CreatedUTC),
		Title:     s.Title,
		Text:      truncate(text, maxText),
		Score:     s.Score,
		URL:       "https://reddit.com" + s.Permalink,
		Subreddit: s.Subreddit,
	}
}
