package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrMissingField is wrapped by decode errors for required wire fields.
	ErrMissingField = errors.New("missing required field")
	// ErrNotNumber is wrapped when a numeric field holds anything but a JSON number.
	ErrNotNumber = errors.New("not a JSON number")
)

// wireInstrument mirrors the catalog payload. Pointers and raw numbers distinguish
// absent fields from zero values.
type wireInstrument struct {
	Symbol        *string         `json:"symbol"`
	Name          *string         `json:"name"`
	Price         json.RawMessage `json:"price"`
	Change        json.RawMessage `json:"change"`
	ChangePercent json.RawMessage `json:"changePercent"`
	IconName      *string         `json:"iconName"`
	Logo          *string         `json:"logo"`
	IsFavorite    *bool           `json:"isFavorite"`
}

// wireOut is the encoded form; numbers are written bare so they decode strictly.
type wireOut struct {
	Symbol        string      `json:"symbol"`
	Name          string      `json:"name"`
	Price         json.Number `json:"price"`
	Change        json.Number `json:"change"`
	ChangePercent json.Number `json:"changePercent"`
	IconName      string      `json:"iconName"`
	Logo          string      `json:"logo,omitempty"`
	IsFavorite    bool        `json:"isFavorite"`
}

func absent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// number decodes a bare JSON number. decimal.Decimal alone would also take "131.93".
func number(field string, raw json.RawMessage) (decimal.Decimal, error) {
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return decimal.Decimal{}, fmt.Errorf("%w: %s is %s", ErrNotNumber, field, raw)
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

// MarshalJSON encodes the wire shape accepted by UnmarshalJSON.
func (i Instrument) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireOut{
		Symbol:        i.Ticker,
		Name:          i.CompanyName,
		Price:         json.Number(i.Price.String()),
		Change:        json.Number(i.PriceChange.String()),
		ChangePercent: json.Number(i.PriceChangePercent.String()),
		IconName:      i.IconName,
		Logo:          i.LogoURL,
		IsFavorite:    i.IsFavorite,
	})
}

// UnmarshalJSON decodes the wire shape. iconName, logo and isFavorite are optional;
// every other field is required and symbol must be non-empty.
func (i *Instrument) UnmarshalJSON(data []byte) error {
	var w wireInstrument
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var missing []string
	if w.Symbol == nil {
		missing = append(missing, "symbol")
	}
	if w.Name == nil {
		missing = append(missing, "name")
	}
	if absent(w.Price) {
		missing = append(missing, "price")
	}
	if absent(w.Change) {
		missing = append(missing, "change")
	}
	if absent(w.ChangePercent) {
		missing = append(missing, "changePercent")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	if *w.Symbol == "" {
		return fmt.Errorf("%w: symbol is empty", ErrMissingField)
	}

	price, err := number("price", w.Price)
	if err != nil {
		return err
	}
	change, err := number("change", w.Change)
	if err != nil {
		return err
	}
	pct, err := number("changePercent", w.ChangePercent)
	if err != nil {
		return err
	}

	*i = Instrument{
		Ticker:             *w.Symbol,
		CompanyName:        *w.Name,
		Price:              price,
		PriceChange:        change,
		PriceChangePercent: pct,
	}
	if w.IconName != nil {
		i.IconName = *w.IconName
	}
	if w.Logo != nil {
		i.LogoURL = *w.Logo
	}
	if w.IsFavorite != nil {
		i.IsFavorite = *w.IsFavorite
	}
	return nil
}

// DecodeList decodes a JSON array of wire instruments.
func DecodeList(data []byte) ([]Instrument, error) {
	var list []Instrument
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}
