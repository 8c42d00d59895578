package market

// sectorETFs maps Yahoo sector names to their benchmark ETF.
var sectorETFs = map[string]string{
	"Technology":             "XLK",
	"Healthcare":             "XLV",
	"Financial Services":     "XLF",
	"Consumer Cyclical":      "XLY",
	"Consumer Defensive":     "XLP",
	"Energy":                 "XLE",
	"Industrials":            "XLI",
	"Basic Materials":        "XLB",
	"Real Estate":            "XLRE",
	"Utilities":              "XLU",
	"Communication Services": "XLC",
}

// SectorETF returns the benchmark ETF for a sector, defaulting to SPY
// when the sector is unknown.
func SectorETF(sector string) string {
	if etf, ok := sectorETFs[sector]; ok {
		return etf
	}
	return "SPY"
}
