package api

import (
	"github.com/shopspring/decimal"

	"github.com/kstbyev/investflow/pkg/model"
)

// InstrumentResponse is an instrument with its display strings.
type InstrumentResponse struct {
	Ticker                 string          `json:"ticker"`
	CompanyName            string          `json:"companyName"`
	Price                  decimal.Decimal `json:"price"`
	PriceChange            decimal.Decimal `json:"priceChange"`
	PriceChangePercent     decimal.Decimal `json:"priceChangePercent"`
	DisplayPrice           string          `json:"displayPrice"`
	FormattedChange        string          `json:"formattedChange"`
	FormattedChangePercent string          `json:"formattedChangePercent"`
	IsGain                 bool            `json:"isGain"`
	IconName               string          `json:"iconName"`
	LogoURL                string          `json:"logoUrl,omitempty"`
	IsFavorite             bool            `json:"isFavorite"`
}

// ListResponse is a catalog view.
type ListResponse struct {
	Tab         string               `json:"tab"`
	Generation  uint64               `json:"generation"`
	Count       int                  `json:"count"`
	Instruments []InstrumentResponse `json:"instruments"`
}

// SearchResponse separates an idle search from a search with no matches via State.
type SearchResponse struct {
	State       string               `json:"state"`
	Query       string               `json:"query,omitempty"`
	Count       int                  `json:"count"`
	Instruments []InstrumentResponse `json:"instruments"`
}

// FavoriteResponse reports the state after a toggle.
type FavoriteResponse struct {
	Ticker     string `json:"ticker"`
	IsFavorite bool   `json:"isFavorite"`
}

// LogoFallbackResponse names the local asset to show instead of a remote logo.
type LogoFallbackResponse struct {
	Source string `json:"source"`
	Name   string `json:"name"`
}

func toInstrumentResponse(i model.Instrument) InstrumentResponse {
	return InstrumentResponse{
		Ticker:                 i.Ticker,
		CompanyName:            i.CompanyName,
		Price:                  i.Price,
		PriceChange:            i.PriceChange,
		PriceChangePercent:     i.PriceChangePercent,
		DisplayPrice:           i.DisplayPrice(),
		FormattedChange:        i.FormattedChange(),
		FormattedChangePercent: i.FormattedChangePercent(),
		IsGain:                 i.IsGain(),
		IconName:               i.IconName,
		LogoURL:                i.LogoURL,
		IsFavorite:             i.IsFavorite,
	}
}

func toInstrumentResponses(list []model.Instrument) []InstrumentResponse {
	out := make([]InstrumentResponse, len(list))
	for i, inst := range list {
		out[i] = toInstrumentResponse(inst)
	}
	return out
}
