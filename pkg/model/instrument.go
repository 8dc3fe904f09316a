package model

import (
	"github.com/shopspring/decimal"
)

// Instrument is the display record of a single tradable security.
// Market fields are a snapshot taken at load time; IsFavorite is owned by the catalog.
type Instrument struct {
	Ticker             string          `json:"symbol"`
	CompanyName        string          `json:"name"`
	Price              decimal.Decimal `json:"price"`
	PriceChange        decimal.Decimal `json:"change"`
	PriceChangePercent decimal.Decimal `json:"changePercent"`
	IconName           string          `json:"iconName"`
	LogoURL            string          `json:"logo,omitempty"`
	IsFavorite         bool            `json:"isFavorite"`
}

// HasLogo reports whether a remote logo reference is present.
func (i Instrument) HasLogo() bool {
	return i.LogoURL != ""
}

// IsGain is true for flat or positive moves; the UI colours these green.
func (i Instrument) IsGain() bool {
	return !i.PriceChange.IsNegative()
}

// Tickers returns the tickers of list in order.
func Tickers(list []Instrument) []string {
	out := make([]string, len(list))
	for i, inst := range list {
		out[i] = inst.Ticker
	}
	return out
}
