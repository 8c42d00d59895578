package market

import (
	"context"
	"fmt"
	"math"
	"time"

	"fewknow/internal/logger"
	"fewknow/internal/types"
)

const (
	tradingDaysPerYear = 252

	highVolThreshold   = 40.0
	mediumVolThreshold = 25.0
)

// HistoryProvider supplies daily closing prices for a symbol.
type HistoryProvider interface {
	DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]float64, error)
}

// Analyzer computes price performance since an earnings date, relative
// to the S&P 500 and the company's sector ETF.
type Analyzer struct {
	history HistoryProvider
}

// NewAnalyzer creates a performance analyzer backed by the given
// price history source
func NewAnalyzer(history HistoryProvider) *Analyzer {
	return &Analyzer{history: history}
}

// Analyze computes returns, relative performance, volatility and max
// drawdown for the window from earningsDate to now. It fails when no
// price history exists for the ticker in that window.
func (a *Analyzer) Analyze(ctx context.Context, ticker, earningsDate, sector string) (*types.PricePerformance, error) {
	start, err := time.Parse("2006-01-02", earningsDate)
	if err != nil {
		return nil, fmt.Errorf("invalid earnings date %q: %w", earningsDate, err)
	}
	end := time.Now()

	closes, err := a.history.DailyCloses(ctx, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history for %s: %w", ticker, err)
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("no price data available for %s since %s", ticker, earningsDate)
	}

	stockReturn := totalReturn(closes)
	spReturn := a.benchmarkReturn(ctx, "SPY", start, end)

	sectorETF := SectorETF(sector)
	sectorReturn := spReturn
	if sectorETF != "SPY" {
		sectorReturn = a.benchmarkReturn(ctx, sectorETF, start, end)
	}

	vol := annualizedVolatility(closes)
	tier := "low"
	switch {
	case vol > highVolThreshold:
		tier = "high"
	case vol > mediumVolThreshold:
		tier = "medium"
	}

	perf := &types.PricePerformance{
		SinceEarnings: fmt.Sprintf("%+.1f%%", stockReturn),
		VsSP500:       fmt.Sprintf("%+.1f%%", stockReturn-spReturn),
		VsSector:      fmt.Sprintf("%+.1f%%", stockReturn-sectorReturn),
		SectorETF:     sectorETF,
		MaxDrawdown:   fmt.Sprintf("%.1f%%", maxDrawdown(closes)),
		CurrentPrice:  fmt.Sprintf("$%.2f", closes[len(closes)-1]),
		Volatility:    tier,
		VolatilityPct: fmt.Sprintf("%.1f%%", vol),
	}

	logger.Info(ctx, "Price performance computed",
		"ticker", ticker,
		"since_earnings", perf.SinceEarnings,
		"vs_sp500", perf.VsSP500,
		"volatility", perf.Volatility,
	)
	return perf, nil
}

// benchmarkReturn fetches a benchmark's return over the window; a
// missing or failing benchmark degrades to 0% rather than failing the
// whole analysis.
func (a *Analyzer) benchmarkReturn(ctx context.Context, symbol string, start, end time.Time) float64 {
	closes, err := a.history.DailyCloses(ctx, symbol, start, end)
	if err != nil {
		logger.Warn(ctx, "Benchmark history fetch failed, using 0% return", "symbol", symbol, "error", err.Error())
		return 0
	}
	if len(closes) < 2 {
		logger.Warn(ctx, "Benchmark history empty, using 0% return", "symbol", symbol)
		return 0
	}
	return totalReturn(closes)
}

func totalReturn(closes []float64) float64 {
	if len(closes) < 2 || closes[0] == 0 {
		return 0
	}
	return (closes[len(closes)-1] - closes[0]) / closes[0] * 100
}

// annualizedVolatility is the std dev of daily returns scaled to a
// trading year, expressed in percent.
func annualizedVolatility(closes []float64) float64 {
	if len(closes) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear) * 100
}

// maxDrawdown is the largest peak-to-trough decline over the window,
// returned as a negative percentage.
func maxDrawdown(closes []float64) float64 {
	if len(closes) == 0 {
		return 0
	}
	peak := closes[0]
	var worst float64
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if peak == 0 {
			continue
		}
		dd := (c - peak) / peak * 100
		if dd < worst {
			worst = dd
		}
	}
	return worst
}
