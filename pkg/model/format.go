package model

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	textnumber "golang.org/x/text/number"
)

var (
	hundred = decimal.NewFromInt(100)
	printer = message.NewPrinter(language.English)
)

// FormattedPrice renders the price with two decimals, e.g. "131.93".
func (i Instrument) FormattedPrice() string {
	return i.Price.StringFixed(2)
}

// DisplayPrice renders the price the way the list row shows it: grouped thousands,
// whole prices without decimals ("$1,250"), others with two ("$2,321.24").
func (i Instrument) DisplayPrice() string {
	p := i.Price.Round(2)
	if p.Equal(p.Truncate(0)) {
		return "$" + printer.Sprintf("%v", textnumber.Decimal(p.IntPart()))
	}
	return "$" + printer.Sprintf("%v", textnumber.Decimal(p.InexactFloat64(), textnumber.Scale(2)))
}

// FormattedChange renders the absolute change with its sign, e.g. "+$0.12" or "-$12.31".
func (i Instrument) FormattedChange() string {
	return sign(i.PriceChange) + "$" + i.PriceChange.Abs().StringFixed(2)
}

// FormattedChangePercent renders the relative change with its sign, e.g. "+0.09%".
func (i Instrument) FormattedChangePercent() string {
	return sign(i.PriceChangePercent) + i.PriceChangePercent.Abs().StringFixed(2) + "%"
}

// ChangeSummary combines both change figures: "+$0.12 (+0.09%)".
func (i Instrument) ChangeSummary() string {
	return i.FormattedChange() + " (" + i.FormattedChangePercent() + ")"
}

// PreviousClose derives the prior price from the current price and absolute change.
func (i Instrument) PreviousClose() decimal.Decimal {
	return i.Price.Sub(i.PriceChange)
}

// ImpliedChangePercent recomputes the relative move from price and change, rounded to 2 places.
// Zero when the previous close is zero.
func (i Instrument) ImpliedChangePercent() decimal.Decimal {
	prev := i.PreviousClose()
	if prev.IsZero() {
		return decimal.Zero
	}
	return i.PriceChange.Div(prev).Mul(hundred).Round(2)
}

func sign(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-"
	}
	return "+"
}
