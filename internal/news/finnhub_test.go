package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fewknow/internal/api"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*FinnhubClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &FinnhubClient{
		client:  api.NewClient(api.WithTimeout(5 * time.Second)),
		apiKey:  "test-key",
		baseURL: srv.URL,
	}, srv
}

func TestFinnhubCollectFiltersAndTruncates(t *testing.T) {
	long := strings.Repeat("x", 600)
	fc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "AAPL" {
			t.Errorf("symbol = %q, want AAPL", got)
		}
		if got := r.URL.Query().Get("token"); got != "test-key" {
			t.Errorf("token = %q, want test-key", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"headline":"Apple beats estimates","summary":"` + long + `","source":"Reuters","datetime":1700000000,"url":"https://example.com/1"},
			{"headline":"","summary":"no headline","source":"AP","datetime":1700000000,"url":"https://example.com/2"},
			{"headline":"no summary","summary":"","source":"AP","datetime":1700000000,"url":"https://example.com/3"}
		]`))
	})

	articles, err := fc.Collect(context.Background(), "AAPL", "Apple Inc.", "2023-11-01")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1 (empty headline/summary skipped)", len(articles))
	}

	a := articles[0]
	if a.Title != "Apple beats estimates" {
		t.Errorf("Title = %q", a.Title)
	}
	if len(a.Description) != maxDescriptionLength {
		t.Errorf("Description length = %d, want %d", len(a.Description), maxDescriptionLength)
	}
	if a.Author != "Reuters" {
		t.Errorf("Author = %q, want source name", a.Author)
	}
	if a.Date != time.Unix(1700000000, 0).Format("2006-01-02") {
		t.Errorf("Date = %q", a.Date)
	}
}

func TestFinnhubCollectDefaultsMissingFields(t *testing.T) {
	fc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"headline":"Undated wire story","summary":"body","url":"https://example.com/1"}]`))
	})

	articles, err := fc.Collect(context.Background(), "AAPL", "Apple Inc.", "2023-11-01")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}

	a := articles[0]
	if want := time.Now().Format("2006-01-02"); a.Date != want {
		t.Errorf("Date = %q, want today %q for a missing timestamp", a.Date, want)
	}
	if a.Source != "Unknown" || a.Author != "Unknown" {
		t.Errorf("Source/Author = %q/%q, want Unknown", a.Source, a.Author)
	}
}

func TestFinnhubCollectRequiresAPIKey(t *testing.T) {
	fc := &FinnhubClient{client: api.NewClient(), baseURL: "http://unused"}
	if _, err := fc.Collect(context.Background(), "AAPL", "Apple", "2023-11-01"); err == nil {
		t.Fatal("expected error when API key is missing")
	}
}

func TestFinnhubCollectServerError(t *testing.T) {
	fc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	if _, err := fc.Collect(context.Background(), "AAPL", "Apple", "2023-11-01"); err == nil {
		t.Fatal("expected error on HTTP 429")
	}
}
