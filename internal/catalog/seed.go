package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/kstbyev/investflow/pkg/model"
)

func seedInstrument(ticker, name, price, change, pct, icon string, favorite bool) model.Instrument {
	return model.Instrument{
		Ticker:             ticker,
		CompanyName:        name,
		Price:              decimal.RequireFromString(price),
		PriceChange:        decimal.RequireFromString(change),
		PriceChangePercent: decimal.RequireFromString(pct),
		IconName:           icon,
		LogoURL:            "https://example.com/" + icon + ".png",
		IsFavorite:         favorite,
	}
}

// Seed returns the built-in instrument list installed when the first load fails.
// The result is a fresh slice on every call.
func Seed() []model.Instrument {
	return []model.Instrument{
		seedInstrument("AAPL", "Apple Inc.", "131.93", "0.12", "0.09", "apple", true),
		seedInstrument("GOOGL", "Alphabet Inc.", "2321.24", "-12.31", "-0.53", "google", false),
		seedInstrument("MSFT", "Microsoft Corporation", "245.17", "1.23", "0.50", "microsoft", true),
		seedInstrument("AMZN", "Amazon.com Inc.", "3116.42", "-23.42", "-0.75", "amazon", false),
		seedInstrument("TSLA", "Tesla Inc.", "621.87", "15.72", "2.59", "tesla", true),
		seedInstrument("NVDA", "NVIDIA Corporation", "545.12", "8.31", "1.55", "nvidia", false),
		seedInstrument("META", "Meta Platforms Inc.", "264.28", "-3.15", "-1.18", "meta", false),
		seedInstrument("NFLX", "Netflix Inc.", "556.55", "4.43", "0.80", "netflix", false),
	}
}

// SeedFavorites returns the tickers the seed list marks as favorite.
func SeedFavorites() []string {
	var out []string
	for _, inst := range Seed() {
		if inst.IsFavorite {
			out = append(out, inst.Ticker)
		}
	}
	return out
}
