package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fewknow/internal/api"
	"fewknow/internal/store"
)

// fakeReddit serves the token, search and comments endpoints.
type fakeReddit struct {
	submissions map[string][]submissionData // keyed by subreddit
	comments    map[string][]Thing          // keyed by submission id
	revoked     bool
}

func (f *fakeReddit) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/access_token":
			if r.Header.Get("Authorization") == "" {
				t.Error("token request missing basic auth")
			}
			fmt.Fprint(w, `{"access_token":"tok","expires_in":3600}`)

		case r.URL.Path == "/api/v1/revoke_token":
			f.revoked = true
			w.WriteHeader(http.StatusNoContent)

		case strings.HasPrefix(r.URL.Path, "/r/"):
			if got := r.Header.Get("Authorization"); got != "bearer tok" {
				t.Errorf("search auth = %q", got)
			}
			sub := strings.Split(r.URL.Path, "/")[2]
			children := []Thing{}
			for _, s := range f.submissions[sub] {
				raw, _ := json.Marshal(s)
				children = append(children, Thing{Kind: "t3", Data: raw})
			}
			json.NewEncoder(w).Encode(listing{Data: struct {
				Children []Thing `json:"children"`
			}{children}})

		case strings.HasPrefix(r.URL.Path, "/comments/"):
			id := strings.TrimPrefix(r.URL.Path, "/comments/")
			json.NewEncoder(w).Encode([]listing{
				{},
				{Data: struct {
					Children []Thing `json:"children"`
				}{f.comments[id]}},
			})

		default:
			http.NotFound(w, r)
		}
	}
}

func testCollector(t *testing.T, f *fakeReddit) *Collector {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	cfg := store.Default()
	return &Collector{
		cfg: cfg,
		client: &Client{
			client:    api.NewClient(api.WithTimeout(5 * time.Second)),
			authURL:   srv.URL,
			apiURL:    srv.URL,
			clientID:  "id",
			secret:    "secret",
			userAgent: "test",
		},
	}
}

func sub(id, title string, score int, createdDaysAgo int, author string) submissionData {
	return submissionData{
		ID:         id,
		Title:      title,
		Selftext:   "body of " + title,
		Author:     author,
		Subreddit:  "stocks",
		Permalink:  "/r/stocks/comments/" + id + "/",
		Score:      score,
		CreatedUTC: float64(time.Now().AddDate(0, 0, -createdDaysAgo).Unix()),
	}
}

func since(daysAgo int) string {
	return time.Now().AddDate(0, 0, -daysAgo).Format("2006-01-02")
}

func TestCollectFiltersAndSorts(t *testing.T) {
	f := &fakeReddit{
		submissions: map[string][]submissionData{
			"stocks": {
				sub("a", "NVDA crushed earnings", 50, 5, "user1"),
				sub("b", "NVDA quiet take", 120, 5, "user2"),
				sub("c", "old thread", 500, 90, "user3"),         // before cutoff
				sub("d", "low score", 3, 5, "user4"),             // below min score
				sub("e", "daily thread", 80, 5, "AutoModerator"), // automod
				sub("f", "megathread", 90, 5, "wsb_automod_bot"), // automod variant
				sub("g", "orphaned post", 70, 5, ""),             // deleted author
			},
		},
		comments: map[string][]Thing{},
	}
	c := testCollector(t, f)
	c.cfg.Reddit.Forums = []string{"stocks"}

	items, err := c.Collect(context.Background(), "NVDA", "NVIDIA", since(30))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Score < items[1].Score {
		t.Error("items not sorted by score descending")
	}
	if items[0].Title != "NVDA quiet take" {
		t.Errorf("top item = %q", items[0].Title)
	}
	if !f.revoked {
		t.Error("token was not revoked after collection")
	}
}

func TestCollectDeduplicatesAcrossQueries(t *testing.T) {
	// The same submission matches both "$NVDA" and "NVIDIA" searches.
	f := &fakeReddit{
		submissions: map[string][]submissionData{
			"stocks": {sub("a", "NVDA earnings", 50, 5, "user1")},
		},
		comments: map[string][]Thing{},
	}
	c := testCollector(t, f)
	c.cfg.Reddit.Forums = []string{"stocks"}

	items, err := c.Collect(context.Background(), "NVDA", "NVIDIA", since(30))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 after dedup", len(items))
	}
}

func TestCollectCommentsOnlyFromTopSubmissions(t *testing.T) {
	f := &fakeReddit{
		submissions: map[string][]submissionData{"stocks": {}},
		comments:    map[string][]Thing{},
	}
	// 31 qualifying submissions; only the top 30 by score get comments.
	for i := 0; i < 31; i++ {
		s := sub(fmt.Sprintf("s%02d", i), fmt.Sprintf("thread %d", i), 100-i, 5, "user")
		f.submissions["stocks"] = append(f.submissions["stocks"], s)
		f.comments[s.ID] = []Thing{commentThing(t, longBody("solid take"), 10)}
	}
	c := testCollector(t, f)
	c.cfg.Reddit.Forums = []string{"stocks"}

	items, err := c.Collect(context.Background(), "NVDA", "NVIDIA", since(30))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	comments := 0
	lowestID := fmt.Sprintf("s%02d", 30) // lowest-scored submission
	for _, it := range items {
		if it.Type == "comment" {
			comments++
			if strings.Contains(it.URL, lowestID) {
				t.Error("comment collected from submission outside the top 30")
			}
		}
	}
	if comments != 30 {
		t.Errorf("got %d comments, want 30 (one per top submission)", comments)
	}
}

func TestCollectCapsTotalItems(t *testing.T) {
	f := &fakeReddit{
		submissions: map[string][]submissionData{"stocks": {}},
		comments:    map[string][]Thing{},
	}
	for i := 0; i < 120; i++ {
		s := sub(fmt.Sprintf("s%03d", i), fmt.Sprintf("thread %d", i), 200-i, 5, "user")
		f.submissions["stocks"] = append(f.submissions["stocks"], s)
	}
	c := testCollector(t, f)
	c.cfg.Reddit.Forums = []string{"stocks"}

	items, err := c.Collect(context.Background(), "NVDA", "NVIDIA", since(30))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(items) != c.cfg.Reddit.MaxItems {
		t.Errorf("got %d items, want cap %d", len(items), c.cfg.Reddit.MaxItems)
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].Score < items[i].Score {
			t.Fatal("capped items not sorted by score descending")
		}
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "")
	t.Setenv("REDDIT_CLIENT_SECRET", "")
	t.Setenv("REDDIT_USER_AGENT", "")
	if _, err := NewClient(time.Second); err == nil {
		t.Fatal("expected error without credentials")
	}

	// All three are required, not just the OAuth pair.
	t.Setenv("REDDIT_CLIENT_ID", "id")
	t.Setenv("REDDIT_CLIENT_SECRET", "secret")
	if _, err := NewClient(time.Second); err == nil {
		t.Fatal("expected error without a user agent")
	}
}
