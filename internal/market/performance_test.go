package market

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeHistory struct {
	closes map[string][]float64
	errs   map[string]error
}

func (f *fakeHistory) DailyCloses(_ context.Context, symbol string, _, _ time.Time) ([]float64, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.closes[symbol], nil
}

func recentDate() string {
	return time.Now().AddDate(0, -1, 0).Format("2006-01-02")
}

func TestAnalyzeComputesRelativeReturns(t *testing.T) {
	h := &fakeHistory{closes: map[string][]float64{
		"AAPL": {100, 105, 110},     // +10%
		"SPY":  {400, 404, 408},     // +2%
		"XLK":  {150, 151.5, 157.5}, // +5%
	}}
	a := NewAnalyzer(h)

	perf, err := a.Analyze(context.Background(), "AAPL", recentDate(), "Technology")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if perf.SinceEarnings != "+10.0%" {
		t.Errorf("SinceEarnings = %q, want +10.0%%", perf.SinceEarnings)
	}
	if perf.VsSP500 != "+8.0%" {
		t.Errorf("VsSP500 = %q, want +8.0%%", perf.VsSP500)
	}
	if perf.VsSector != "+5.0%" {
		t.Errorf("VsSector = %q, want +5.0%%", perf.VsSector)
	}
	if perf.SectorETF != "XLK" {
		t.Errorf("SectorETF = %q, want XLK", perf.SectorETF)
	}
	if perf.CurrentPrice != "$110.00" {
		t.Errorf("CurrentPrice = %q, want $110.00", perf.CurrentPrice)
	}
}

func TestAnalyzeFailsWithoutPriceHistory(t *testing.T) {
	a := NewAnalyzer(&fakeHistory{closes: map[string][]float64{}})

	_, err := a.Analyze(context.Background(), "ABCD", recentDate(), "Technology")
	if err == nil {
		t.Fatal("expected error for missing price history")
	}
	if !strings.Contains(err.Error(), "no price data") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAnalyzeSurvivesBenchmarkFailure(t *testing.T) {
	h := &fakeHistory{
		closes: map[string][]float64{"AAPL": {100, 110}},
		errs:   map[string]error{"SPY": errors.New("rate limited"), "XLK": errors.New("rate limited")},
	}
	a := NewAnalyzer(h)

	perf, err := a.Analyze(context.Background(), "AAPL", recentDate(), "Technology")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	// benchmark failures degrade to a 0% benchmark return
	if perf.VsSP500 != "+10.0%" {
		t.Errorf("VsSP500 = %q, want +10.0%%", perf.VsSP500)
	}
}

func TestAnalyzeRejectsBadDate(t *testing.T) {
	a := NewAnalyzer(&fakeHistory{})
	if _, err := a.Analyze(context.Background(), "AAPL", "not-a-date", "Technology"); err == nil {
		t.Fatal("expected error for malformed earnings date")
	}
}

func TestVolatilityTiers(t *testing.T) {
	// Alternating big swings produce high annualized volatility.
	swingy := []float64{100, 110, 95, 112, 90, 115}
	if v := annualizedVolatility(swingy); v <= highVolThreshold {
		t.Errorf("expected high volatility, got %.1f", v)
	}

	flat := []float64{100, 100.1, 100.05, 100.12, 100.08}
	if v := annualizedVolatility(flat); v > mediumVolThreshold {
		t.Errorf("expected low volatility, got %.1f", v)
	}
}

func TestMaxDrawdown(t *testing.T) {
	closes := []float64{100, 120, 90, 110}
	got := maxDrawdown(closes)
	want := -25.0 // 120 -> 90
	if got != want {
		t.Errorf("maxDrawdown = %.2f, want %.2f", got, want)
	}

	if dd := maxDrawdown([]float64{100, 105, 110}); dd != 0 {
		t.Errorf("monotonic series drawdown = %.2f, want 0", dd)
	}
}

func TestSectorETFDefault(t *testing.T) {
	if etf := SectorETF("Technology"); etf != "XLK" {
		t.Errorf("SectorETF(Technology) = %q, want XLK", etf)
	}
	if etf := SectorETF("Quantum Widgets"); etf != "SPY" {
		t.Errorf("SectorETF(unknown) = %q, want SPY", etf)
	}
}
