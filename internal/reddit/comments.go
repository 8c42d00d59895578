package reddit

import (
	"encoding/json"
	"time"

	"fewknow/internal/types"
)

// commentFilter holds the quality thresholds for traversing a comment
// forest.
type commentFilter struct {
	MinScore  int
	MinLength int
	MaxText   int
	Limit     int
}

// filterComments walks a comment forest breadth-first and returns the
// comments that clear the quality bar, as discussion items attributed
// to their parent submission.
//
// A comment that fails the bar is not collected but its replies are
// still traversed: low-effort parents often hide substantive threads.
// Traversal stops as soon as Limit items are collected.
func filterComments(roots []Thing, parent submissionData, f commentFilter) []types.DiscussionItem {
	items := []types.DiscussionItem{}
	queue := make([]Thing, len(roots))
	copy(queue, roots)

	title := parent.Title
	if len(title) > 50 {
		title = title[:50]
	}
	commentTitle := "Comment on: " + title + "..."

	for len(queue) > 0 && len(items) < f.Limit {
		thing := queue[0]
		queue = queue[1:]

		// "more" stubs are pagination markers, not comments
		if thing.Kind != "t1" {
			continue
		}

		var c commentData
		if err := json.Unmarshal(thing.Data, &c); err != nil {
			continue
		}

		if qualifies(c, f) {
			items = append(items, types.DiscussionItem{
				Type:      types.ItemComment,
				Date:      formatCreated(c.CreatedUTC),
				Title:     commentTitle,
				Text:      truncate(c.Body, f.MaxText),
				Score:     c.Score,
				URL:       "https://reddit.com" + parent.Permalink,
				Subreddit: parent.Subreddit,
			})
		}

		// Children are explored whether or not the parent qualified.
		queue = append(queue, replyChildren(c.Replies)...)
	}

	return items
}

func qualifies(c commentData, f commentFilter) bool {
	return c.Body != "" && c.Score >= f.MinScore && len(c.Body) > f.MinLength
}

// replyChildren decodes the replies field, which is either an empty
// string or a nested listing.
func replyChildren(raw json.RawMessage) []Thing {
	if len(raw) == 0 || string(raw) == `""` || string(raw) == "null" {
		return nil
	}
	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil
	}
	return l.Data.Children
}

func formatCreated(createdUTC float64) string {
	if createdUTC == 0 {
		return "unknown"
	}
	return time.Unix(int64(createdUTC), 0).UTC().Format("2006-01-02")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
