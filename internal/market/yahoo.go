package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fewknow/internal/api"
	"fewknow/internal/logger"
	"fewknow/internal/types"
)

const (
	quoteSummaryURL = "https://query1.finance.yahoo.com/v10/finance/quoteSummary/%s?modules=%s"
	chartURL        = "https://query1.finance.yahoo.com/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d"

	maxGuidanceLength = 500

	// Lookback used when no earnings date can be resolved upstream.
	defaultEarningsDaysAgo = 90
)

// YahooClient fetches company, earnings and price data from Yahoo Finance.
// It implements TickerValidator, EarningsSource and HistoryProvider.
type YahooClient struct {
	client *api.Client
}

// NewYahooClient creates a Yahoo Finance client
func NewYahooClient() *YahooClient {
	return &YahooClient{
		client: api.NewClient(
			api.WithTimeout(30*time.Second),
			api.WithLogging(true),
		),
	}
}

// fmtValue is Yahoo's {raw, fmt} number wrapper
type fmtValue struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price *struct {
				Symbol   string `json:"symbol"`
				LongName string `json:"longName"`
			} `json:"price"`
			AssetProfile *struct {
				Sector              string `json:"sector"`
				Industry            string `json:"industry"`
				LongBusinessSummary string `json:"longBusinessSummary"`
			} `json:"assetProfile"`
			CalendarEvents *struct {
				Earnings struct {
					EarningsDate []fmtValue `json:"earningsDate"`
				} `json:"earnings"`
			} `json:"calendarEvents"`
			Earnings *struct {
				EarningsChart struct {
					Quarterly []struct {
						Date     string    `json:"date"`
						Actual   *fmtValue `json:"actual"`
						Estimate *fmtValue `json:"estimate"`
					} `json:"quarterly"`
					EarningsDate []fmtValue `json:"earningsDate"`
				} `json:"earningsChart"`
			} `json:"earnings"`
			FinancialData *struct {
				TotalRevenue *fmtValue `json:"totalRevenue"`
			} `json:"financialData"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

func (y *YahooClient) get(ctx context.Context, u string) (*api.Response, error) {
	req := api.NewRequest(http.MethodGet, u).WithContext(ctx)
	for k, v := range api.YahooFinanceHeaders() {
		req.WithHeader(k, v)
	}
	// Yahoo rate-limits aggressively; back off and retry.
	return y.client.DoWithRetry(req, nil)
}

func (y *YahooClient) quoteSummary(ctx context.Context, ticker string, modules []string) (*quoteSummaryResponse, error) {
	u := fmt.Sprintf(quoteSummaryURL, url.PathEscape(strings.ToUpper(ticker)), url.QueryEscape(strings.Join(modules, ",")))
	resp, err := y.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("yahoo quoteSummary request failed: %w", err)
	}

	var qs quoteSummaryResponse
	if err := resp.ParseJSON(&qs); err != nil {
		return nil, err
	}
	if qs.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo quoteSummary error: %s", qs.QuoteSummary.Error.Description)
	}
	return &qs, nil
}

// Validate checks that the ticker exists and returns basic company info
func (y *YahooClient) Validate(ctx context.Context, ticker string) (*types.CompanyInfo, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	logger.Info(ctx, "Validating ticker", "ticker", ticker)

	qs, err := y.quoteSummary(ctx, ticker, []string{"price", "assetProfile"})
	if err != nil {
		return nil, fmt.Errorf("ticker '%s' not found or invalid: %w", ticker, err)
	}
	if len(qs.QuoteSummary.Result) == 0 || qs.QuoteSummary.Result[0].Price == nil {
		return nil, fmt.Errorf("ticker '%s' not found or invalid", ticker)
	}

	r := qs.QuoteSummary.Result[0]
	info := &types.CompanyInfo{
		Ticker:   ticker,
		Name:     r.Price.LongName,
		Sector:   "Unknown",
		Industry: "Unknown",
	}
	if info.Name == "" {
		info.Name = ticker
	}
	if r.AssetProfile != nil {
		if r.AssetProfile.Sector != "" {
			info.Sector = r.AssetProfile.Sector
		}
		if r.AssetProfile.Industry != "" {
			info.Industry = r.AssetProfile.Industry
		}
	}

	logger.Info(ctx, "Ticker validated", "ticker", ticker, "name", info.Name, "sector", info.Sector)
	return info, nil
}

// LatestEarnings fetches the most recent earnings date and key metrics.
// When no past earnings date is available the date defaults to 90 days ago
// and Estimated is set so downstream consumers can tell the difference.
func (y *YahooClient) LatestEarnings(ctx context.Context, ticker string) (*types.EarningsMetadata, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	logger.Info(ctx, "Fetching earnings metadata", "ticker", ticker)

	qs, err := y.quoteSummary(ctx, ticker, []string{"earnings", "calendarEvents", "financialData", "assetProfile"})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch earnings metadata for %s: %w", ticker, err)
	}
	if len(qs.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no earnings data returned for %s", ticker)
	}
	r := qs.QuoteSummary.Result[0]

	meta := &types.EarningsMetadata{}

	// Most recent non-future earnings date; Yahoo reports announcement
	// timestamps newest-last under earningsChart.
	now := time.Now()
	var lastDate time.Time
	collect := func(vals []fmtValue) {
		for _, v := range vals {
			t := time.Unix(int64(v.Raw), 0)
			if t.After(now) {
				continue
			}
			if t.After(lastDate) {
				lastDate = t
			}
		}
	}
	if r.Earnings != nil {
		collect(r.Earnings.EarningsChart.EarningsDate)
	}
	if r.CalendarEvents != nil {
		collect(r.CalendarEvents.Earnings.EarningsDate)
	}
	if lastDate.IsZero() {
		logger.Warn(ctx, "No past earnings date found, assuming last quarter", "ticker", ticker)
		lastDate = now.AddDate(0, 0, -defaultEarningsDaysAgo)
		meta.Estimated = true
	}
	meta.Date = lastDate.Format("2006-01-02")

	if r.Earnings != nil && len(r.Earnings.EarningsChart.Quarterly) > 0 {
		latest := r.Earnings.EarningsChart.Quarterly[len(r.Earnings.EarningsChart.Quarterly)-1]
		if latest.Actual != nil {
			v := latest.Actual.Raw
			meta.EPSActual = &v
		}
		if latest.Estimate != nil {
			v := latest.Estimate.Raw
			meta.EPSEstimate = &v
		}
	}
	if r.FinancialData != nil && r.FinancialData.TotalRevenue != nil {
		meta.Revenue = int64(r.FinancialData.TotalRevenue.Raw)
	}
	if r.AssetProfile != nil {
		meta.Guidance = truncate(r.AssetProfile.LongBusinessSummary, maxGuidanceLength)
	}
	if meta.Guidance == "" {
		meta.Guidance = "No guidance available"
	}

	logger.Info(ctx, "Earnings metadata fetched", "ticker", ticker, "date", meta.Date, "estimated", meta.Estimated)
	return meta, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyCloses returns daily closing prices for the symbol in [start, end].
// Null candles (holidays, halts) are dropped.
func (y *YahooClient) DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]float64, error) {
	u := fmt.Sprintf(chartURL, url.PathEscape(strings.ToUpper(symbol)), start.Unix(), end.Unix())
	resp, err := y.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart request failed for %s: %w", symbol, err)
	}

	var cr chartResponse
	if err := resp.ParseJSON(&cr); err != nil {
		return nil, err
	}
	if cr.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error for %s: %s", symbol, cr.Chart.Error.Description)
	}
	if len(cr.Chart.Result) == 0 || len(cr.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	raw := cr.Chart.Result[0].Indicators.Quote[0].Close
	closes := make([]float64, 0, len(raw))
	for _, c := range raw {
		if c != nil {
			closes = append(closes, *c)
		}
	}
	return closes, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
