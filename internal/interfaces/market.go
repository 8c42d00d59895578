package interfaces

import (
	"context"

	"fewknow/internal/types"
)

// TickerValidator checks that a ticker exists and resolves company info.
type TickerValidator interface {
	Validate(ctx context.Context, ticker string) (*types.CompanyInfo, error)
}

// EarningsSource fetches the most recent earnings metadata for a ticker.
type EarningsSource interface {
	LatestEarnings(ctx context.Context, ticker string) (*types.EarningsMetadata, error)
}

// PerformanceAnalyzer computes price performance since the earnings date
// against the S&P 500 and the company's sector benchmark.
type PerformanceAnalyzer interface {
	Analyze(ctx context.Context, ticker, earningsDate, sector string) (*types.PricePerformance, error)
}
