package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"fewknow/internal/interfaces"
	"fewknow/internal/logger"
	"fewknow/internal/store"
	"fewknow/internal/trace"
	"fewknow/internal/types"
)

// Pipeline step progress checkpoints.
const (
	progressQueued      = "0%"
	progressValidating  = "10%"
	progressEarnings    = "25%"
	progressPerformance = "35%"
	progressNews        = "45%"
	progressDiscussion  = "60%"
	progressAnalysis    = "75%"
	progressReport      = "85%"
	progressDegraded    = "90%"
	progressDone        = "100%"
)

// ResultLogger persists completed job summaries; nil disables logging.
type ResultLogger interface {
	Append(res *types.AnalysisResult) error
}

// Pipeline orchestrates one analysis job from ticker validation through
// report synthesis, recording progress in the store and pushing it to
// the publisher at every step.
type Pipeline struct {
	cfg       *store.Config
	store     *Store
	publisher *Publisher

	validator   interfaces.TickerValidator
	earnings    interfaces.EarningsSource
	performance interfaces.PerformanceAnalyzer
	news        interfaces.NewsCollector
	discussions interfaces.DiscussionCollector
	analyzer    interfaces.DiscussionAnalyzer
	writer      interfaces.ReportWriter

	resultLog ResultLogger
}

// Deps bundles the pipeline's collaborators.
type Deps struct {
	Validator   interfaces.TickerValidator
	Earnings    interfaces.EarningsSource
	Performance interfaces.PerformanceAnalyzer
	News        interfaces.NewsCollector
	Discussions interfaces.DiscussionCollector
	Analyzer    interfaces.DiscussionAnalyzer
	Writer      interfaces.ReportWriter
	ResultLog   ResultLogger
}

// NewPipeline creates the orchestrator
func NewPipeline(cfg *store.Config, st *Store, pub *Publisher, deps Deps) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		store:       st,
		publisher:   pub,
		validator:   deps.Validator,
		earnings:    deps.Earnings,
		performance: deps.Performance,
		news:        deps.News,
		discussions: deps.Discussions,
		analyzer:    deps.Analyzer,
		writer:      deps.Writer,
		resultLog:   deps.ResultLog,
	}
}

// Store exposes the underlying job store.
func (p *Pipeline) Store() *Store { return p.store }

// Publisher exposes the progress publisher.
func (p *Pipeline) Publisher() *Publisher { return p.publisher }

// Submit registers a new job for the ticker and starts it in the
// background, returning the job ID immediately. Expired results are
// swept on each submission.
func (p *Pipeline) Submit(ctx context.Context, ticker string) (string, error) {
	if ticker == "" {
		return "", fmt.Errorf("ticker is required")
	}

	if evicted := p.store.SweepExpired(); evicted > 0 {
		logger.Info(ctx, "Swept expired job results", "evicted", evicted)
	}

	jobID := uuid.NewString()
	p.updateStatus(ctx, jobID, ticker, types.StatusPending, progressQueued, "Queued")

	go p.run(context.WithoutCancel(ctx), jobID, ticker)
	return jobID, nil
}

func (p *Pipeline) run(ctx context.Context, jobID, ticker string) {
	ctx, span := trace.StartSpan(ctx, "pipeline-run")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Pipeline panic", "job_id", jobID, "ticker", ticker, "panic", fmt.Sprint(r))
			p.failJob(ctx, jobID, ticker, fmt.Errorf("internal error: %v", r))
		}
	}()

	result := &types.AnalysisResult{JobID: jobID, Ticker: ticker}

	p.updateStatus(ctx, jobID, ticker, types.StatusProcessing, progressValidating, "Validating ticker")
	company, err := p.validator.Validate(ctx, ticker)
	if err != nil {
		p.failJob(ctx, jobID, ticker, err)
		return
	}
	result.CompanyInfo = company

	p.updateStatus(ctx, jobID, ticker, types.StatusProcessing, progressEarnings, "Fetching earnings data")
	earnings, err := p.earnings.LatestEarnings(ctx, ticker)
	if err != nil {
		p.failJob(ctx, jobID, ticker, err)
		return
	}
	result.EarningsMetadata = earnings

	p.updateStatus(ctx, jobID, ticker, types.StatusProcessing, progressPerformance, "Analyzing price performance")
	perf, err := p.performance.Analyze(ctx, ticker, earnings.Date, company.Sector)
	if err != nil {
		p.failJob(ctx, jobID, ticker, err)
		return
	}
	result.PricePerformance = perf

	// News is enrichment: a failed fetch degrades to an empty list.
	p.updateStatus(ctx, jobID, ticker, types.StatusProcessing, progressNews, "Collecting news")
	articles, err := p.news.Collect(ctx, ticker, company.Name, earnings.Date)
	if err != nil {
		logger.Warn(ctx, "News collection failed, continuing without news", "job_id", jobID, "error", err.Error())
		articles = nil
	}
	result.NewsArticles = articles

	p.updateStatus(ctx, jobID, ticker, types.StatusProcessing, progressDiscussion, "Collecting discussions")
	items, err := p.discussions.Collect(ctx, ticker, company.Name, earnings.Date)
	if err != nil {
		p.failJob(ctx, jobID, ticker, err)
		return
	}
	result.DiscussionItems = items

	if len(items) == 0 {
		p.updateStatus(ctx, jobID, ticker, types.StatusProcessing, progressDegraded, "No discussion found, generating price-only report")
		result.Kind = types.ReportPriceOnly
		result.InsightReport = priceOnlyReport(ticker, company, earnings, perf, articles)
		p.completeJob(ctx, jobID, ticker, result)
		return
	}

	p.updateStatus(ctx, jobID, ticker, types.StatusProcessing, progressAnalysis, "Analyzing discussion sentiment")
	analysis, err := p.analyzer.AnalyzeDiscussion(ctx, ticker, earnings.Date, items)
	if err != nil {
		p.failJob(ctx, jobID, ticker, err)
		return
	}
	result.DiscussionAnalysis = analysis

	p.updateStatus(ctx, jobID, ticker, types.StatusProcessing, progressReport, "Writing insight report")
	report, err := p.writer.WriteReport(ctx, &types.ReportContext{
		Ticker:      ticker,
		Company:     company,
		Earnings:    earnings,
		Performance: perf,
		Discussion:  analysis,
		News:        recentArticles(articles, p.cfg.News.MaxReportArticles),
		NewsTotal:   len(articles),
	})
	if err != nil {
		p.failJob(ctx, jobID, ticker, err)
		return
	}
	result.Kind = types.ReportFull
	result.InsightReport = report

	p.completeJob(ctx, jobID, ticker, result)
}

func (p *Pipeline) completeJob(ctx context.Context, jobID, ticker string, result *types.AnalysisResult) {
	result.Status = types.StatusCompleted
	p.store.StoreResult(jobID, result, time.Duration(p.cfg.Pipeline.ResultTTLHours)*time.Hour)
	p.updateStatus(ctx, jobID, ticker, types.StatusCompleted, progressDone, "Analysis complete")
	p.publisher.PublishResult(ctx, jobID, result)

	if p.resultLog != nil {
		if err := p.resultLog.Append(result); err != nil {
			logger.Warn(ctx, "Failed to log completed job", "job_id", jobID, "error", err.Error())
		}
	}
}

func (p *Pipeline) failJob(ctx context.Context, jobID, ticker string, cause error) {
	logger.ErrorWithErr(ctx, "Pipeline step failed", cause, "job_id", jobID, "ticker", ticker)

	result := &types.AnalysisResult{
		JobID:  jobID,
		Ticker: ticker,
		Status: types.StatusFailed,
		Error:  cause.Error(),
	}
	// The job stalls at whatever step it failed on.
	progress := progressQueued
	if st, err := p.store.Status(jobID); err == nil {
		progress = st.Progress
	}

	p.store.StoreResult(jobID, result, time.Duration(p.cfg.Pipeline.FailureTTLHours)*time.Hour)
	p.updateStatus(ctx, jobID, ticker, types.StatusFailed, progress, cause.Error())
	p.publisher.PublishError(ctx, jobID, cause.Error())
	p.publisher.PublishResult(ctx, jobID, result)
}

func (p *Pipeline) updateStatus(ctx context.Context, jobID, ticker string, status types.Status, progress, message string) {
	st := types.JobStatus{
		JobID:     jobID,
		Status:    status,
		Progress:  progress,
		Message:   message,
		UpdatedAt: time.Now(),
	}
	p.store.RecordStatus(st)
	p.publisher.PublishStatus(ctx, st)
	logger.JobTransition(ctx, jobID, ticker, string(status), progress, message)
}

// priceOnlyReport builds a mechanical report when no retail discussion
// exists for the ticker, folding in whatever news context was collected.
func priceOnlyReport(ticker string, company *types.CompanyInfo, earnings *types.EarningsMetadata, perf *types.PricePerformance, articles []types.NewsArticle) *types.InsightReport {
	story := fmt.Sprintf("%s (%s) is %s since its %s earnings report, %s vs the S&P 500 and %s vs the %s sector ETF. Volatility is %s (%s) with a max drawdown of %s.",
		company.Name, ticker, perf.SinceEarnings, earnings.Date,
		perf.VsSP500, perf.VsSector, perf.SectorETF,
		perf.Volatility, perf.VolatilityPct, perf.MaxDrawdown)
	sources := []string{"yahoo_finance"}
	if len(articles) > 0 {
		story += fmt.Sprintf(" %d news articles were published during this period, providing context for the market movements.", len(articles))
		sources = append(sources, "news")
	} else {
		story += " No retail discussion data was available for this ticker during the analysis period."
	}

	return &types.InsightReport{
		Headline:          fmt.Sprintf("%s: price action since %s earnings", ticker, earnings.Date),
		Story:             story,
		RetailPerspective: "No retail discussion found for this ticker in the covered forums.",
		TheGap:            "Insufficient data to compare the official narrative against retail sentiment.",
		WhatsNext:         fmt.Sprintf("Monitor upcoming earnings reports and price action relative to the %s sector ETF.", perf.SectorETF),
		KeyDates: []types.Event{
			{Date: earnings.Date, Description: "Last earnings report", Source: "yahoo_finance"},
		},
		Sources: sources,
	}
}

// recentArticles returns the n most recent articles by date.
func recentArticles(articles []types.NewsArticle, n int) []types.NewsArticle {
	if len(articles) <= n {
		return articles
	}
	sorted := make([]types.NewsArticle, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})
	return sorted[:n]
}
