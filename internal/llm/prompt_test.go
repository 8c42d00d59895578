package llm

import (
	"strings"
	"testing"

	"fewknow/internal/types"
)

func TestBuildAnalysisPromptCapsItems(t *testing.T) {
	items := make([]types.DiscussionItem, 80)
	for i := range items {
		items[i] = types.DiscussionItem{Title: "item", Score: 80 - i}
	}
	prompt := BuildAnalysisPrompt("NVDA", "2026-07-30", items, 50)

	if got := strings.Count(prompt, `"title": "item"`); got != 50 {
		t.Errorf("prompt contains %d items, want 50", got)
	}
	if !strings.Contains(prompt, "NVDA") || !strings.Contains(prompt, "2026-07-30") {
		t.Error("prompt missing ticker or earnings date")
	}
}

func TestExtractJSONTolerantOfFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"bare", `{"overall_summary":"fine"}`},
		{"fenced", "```json\n{\"overall_summary\":\"fine\"}\n```"},
		{"prose", "Here is the analysis:\n{\"overall_summary\":\"fine\"}\nHope that helps."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := ParseAnalysis(tc.in)
			if err != nil {
				t.Fatalf("ParseAnalysis failed: %v", err)
			}
			if a.OverallSummary != "fine" {
				t.Errorf("OverallSummary = %q", a.OverallSummary)
			}
		})
	}
}

func TestExtractJSONFailsOnNoObject(t *testing.T) {
	if _, err := ExtractJSON("I cannot produce that analysis."); err == nil {
		t.Fatal("expected error for output without JSON")
	}
}

func TestParseReport(t *testing.T) {
	out := `{"headline":"NVDA defies gravity","story":"s","retail_perspective":"r","the_gap":"g","whats_next":"w","key_dates":[{"date":"2026-08-01","description":"d","source":"reddit"}],"sources":["reddit"]}`
	r, err := ParseReport(out)
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	if r.Headline != "NVDA defies gravity" || len(r.KeyDates) != 1 {
		t.Errorf("unexpected report: %+v", r)
	}
}
