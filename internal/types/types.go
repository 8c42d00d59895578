package types

import "time"

// Status is the lifecycle state of an analysis job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is absorbing.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobStatus is the current state of a job as seen by clients.
type JobStatus struct {
	JobID     string    `json:"job_id"`
	Status    Status    `json:"status"`
	Progress  string    `json:"progress"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyInfo is the output of ticker validation.
type CompanyInfo struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// EarningsMetadata describes the most recent earnings report.
// Estimated is true when no earnings date could be found upstream and the
// date was defaulted to 90 days ago; every downstream date filter inherits
// that uncertainty.
type EarningsMetadata struct {
	Date        string   `json:"date"` // YYYY-MM-DD
	Estimated   bool     `json:"estimated"`
	EPSActual   *float64 `json:"eps_actual"`
	EPSEstimate *float64 `json:"eps_estimate"`
	Revenue     int64    `json:"revenue"`
	Guidance    string   `json:"guidance"`
}

// PricePerformance summarizes price action since earnings vs benchmarks.
type PricePerformance struct {
	SinceEarnings string `json:"since_earnings"`
	VsSP500       string `json:"vs_sp500"`
	VsSector      string `json:"vs_sector"`
	SectorETF     string `json:"sector_etf"`
	MaxDrawdown   string `json:"max_drawdown"`
	CurrentPrice  string `json:"current_price"`
	Volatility    string `json:"volatility"` // high | medium | low
	VolatilityPct string `json:"volatility_pct"`
}

// NewsArticle is raw provider output, trusted as-is (no dedup).
type NewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Date        string `json:"date"` // YYYY-MM-DD
	URL         string `json:"url"`
	Author      string `json:"author"`
}

// Discussion item types.
const (
	ItemSubmission = "submission"
	ItemComment    = "comment"
)

// DiscussionItem is one unit of retail discussion: a forum submission or a
// quality comment extracted from one. Score is the sole ranking key.
type DiscussionItem struct {
	Type      string `json:"type"`
	Date      string `json:"date"` // YYYY-MM-DD or "unknown"
	Title     string `json:"title"`
	Text      string `json:"text"`
	Score     int    `json:"score"`
	URL       string `json:"url"`
	Subreddit string `json:"subreddit"`
}

// SentimentPeriod is one slice of the sentiment timeline.
type SentimentPeriod struct {
	Period     string   `json:"period"`
	Sentiment  string   `json:"sentiment"`  // bullish | bearish | mixed
	Confidence string   `json:"confidence"` // high | medium | low
	KeyDrivers []string `json:"key_drivers"`
}

// Theme is a recurring topic across discussion items.
type Theme struct {
	Theme         string   `json:"theme"`
	MentionCount  int      `json:"mention_count"`
	Sentiment     string   `json:"sentiment"`
	ExampleQuotes []string `json:"example_quotes"`
}

// InsightfulPost is a notable discussion item surfaced by the analyzer.
type InsightfulPost struct {
	Date           string `json:"date"`
	ContentSummary string `json:"content_summary"`
	WhyNotable     string `json:"why_notable"`
	Score          int    `json:"score"`
}

// DiscussionAnalysis is the structured output of the discussion-sentiment
// analyzer. Nil on the price-only report path.
type DiscussionAnalysis struct {
	SentimentTimeline []SentimentPeriod   `json:"sentiment_timeline"`
	TopThemes         []Theme             `json:"top_themes"`
	NotableInsights   []InsightfulPost    `json:"notable_insights"`
	ContrarianTakes   []string            `json:"contrarian_takes"`
	WorryVsOptimism   map[string][]string `json:"worry_vs_optimism"`
	OverallSummary    string              `json:"overall_summary"`
}

// Event is a dated entry on the report timeline.
type Event struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// InsightReport is the narrative synthesis.
type InsightReport struct {
	Headline          string   `json:"headline"`
	Story             string   `json:"story"`
	RetailPerspective string   `json:"retail_perspective"`
	TheGap            string   `json:"the_gap"`
	WhatsNext         string   `json:"whats_next"`
	KeyDates          []Event  `json:"key_dates"`
	Sources           []string `json:"sources"`
}

// ReportKind tags the pipeline outcome variant.
type ReportKind string

const (
	ReportFull      ReportKind = "full"       // discussion analysis + narrative
	ReportPriceOnly ReportKind = "price_only" // degraded: price/news context only
)

// AnalysisResult is the terminal payload of a job. DiscussionAnalysis is
// nil exactly when Kind is ReportPriceOnly.
type AnalysisResult struct {
	JobID              string              `json:"job_id"`
	Status             Status              `json:"status"`
	Ticker             string              `json:"ticker"`
	Kind               ReportKind          `json:"report_kind,omitempty"`
	CompanyInfo        *CompanyInfo        `json:"company_info,omitempty"`
	EarningsMetadata   *EarningsMetadata   `json:"earnings_metadata,omitempty"`
	PricePerformance   *PricePerformance   `json:"price_performance,omitempty"`
	NewsArticles       []NewsArticle       `json:"news_articles,omitempty"`
	DiscussionItems    []DiscussionItem    `json:"discussion_items,omitempty"`
	DiscussionAnalysis *DiscussionAnalysis `json:"discussion_analysis,omitempty"`
	InsightReport      *InsightReport      `json:"insight_report,omitempty"`
	Error              string              `json:"error,omitempty"`
}

// ReportContext is the structured input handed to the narrative writer.
type ReportContext struct {
	Ticker      string              `json:"ticker"`
	Company     *CompanyInfo        `json:"company"`
	Earnings    *EarningsMetadata   `json:"last_earnings"`
	Performance *PricePerformance   `json:"price_performance"`
	Discussion  *DiscussionAnalysis `json:"discussion_analysis,omitempty"`
	News        []NewsArticle       `json:"news_articles,omitempty"`
	NewsTotal   int                 `json:"news_articles_count,omitempty"`
}
