package pricing

import (
	"strings"
	"time"

	"seabook/internal/domain/shared/money"
)

// FxPair keys a tenant-managed exchange rate.
type FxPair struct {
	Base  money.Currency
	Quote money.Currency
}

// FxRate converts 1 Base into Rate Quote.
type FxRate struct {
	Base  money.Currency `json:"base"`
	Quote money.Currency `json:"quote"`
	Rate  float64        `json:"rate"`
	AsOf  time.Time      `json:"as_of"`
}

// FxTable is a tenant's exchange-rate table keyed by (base, quote).
type FxTable map[FxPair]FxRate

// Lookup resolves a conversion from one currency to another. A direct rate
// multiplies; a stored inverse rate divides.
func (t FxTable) Lookup(from, to money.Currency) (float64, money.ConvertOp, bool) {
	if r, ok := t[FxPair{Base: from, Quote: to}]; ok {
		return r.Rate, money.ConvertMul, true
	}
	if r, ok := t[FxPair{Base: to, Quote: from}]; ok {
		return r.Rate, money.ConvertDiv, true
	}
	return 0, money.ConvertMul, false
}

// ConvertQuote re-denominates every line of a quote into target, rounding
// half-up per line, then rebuilds the aggregates from the converted lines so
// the quote invariant holds exactly in the target currency.
func (t FxTable) ConvertQuote(q Quote, target money.Currency) (Quote, error) {
	if q.Currency == target {
		return q, nil
	}
	rate, op, ok := t.Lookup(q.Currency, target)
	if !ok {
		return Quote{}, ErrMissingFxRate
	}

	lines := make([]QuoteLine, 0, len(q.Lines))
	for _, l := range q.Lines {
		amount, err := l.Amount.Convert(target, rate, op)
		if err != nil {
			return Quote{}, err
		}
		lines = append(lines, QuoteLine{Code: l.Code, Description: l.Description, Amount: amount})
	}
	return sumLines(target, lines), nil
}

// sumLines derives subtotal/discounts/taxes/total from a line set. Subtotal
// covers every "fare." line; discounts are stored negative on the line but
// reported positive on the quote.
func sumLines(currency money.Currency, lines []QuoteLine) Quote {
	q := Quote{
		Currency:  currency,
		Subtotal:  money.Money{Currency: currency},
		Discounts: money.Money{Currency: currency},
		TaxesFees: money.Money{Currency: currency},
		Total:     money.Money{Currency: currency},
		Lines:     lines,
	}
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l.Code, fareLinePrefix):
			q.Subtotal.Amount += l.Amount.Amount
		case l.Code == discountLineCode:
			q.Discounts.Amount -= l.Amount.Amount
		case l.Code == taxesLineCode:
			q.TaxesFees.Amount += l.Amount.Amount
		}
		q.Total.Amount += l.Amount.Amount
	}
	return q
}
