package dto

import (
	"seabook/internal/domain/pricing"
)

// QuoteResponse is the wire shape of a computed quote.
type QuoteResponse struct {
	Currency  string      `json:"currency"`
	Subtotal  int64       `json:"subtotal"`
	Discounts int64       `json:"discounts"`
	TaxesFees int64       `json:"taxes_fees"`
	Total     int64       `json:"total"`
	Lines     []QuoteLine `json:"lines"`
}

type QuoteLine struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

func NewQuoteResponse(q pricing.Quote) QuoteResponse {
	lines := make([]QuoteLine, 0, len(q.Lines))
	for _, l := range q.Lines {
		lines = append(lines, QuoteLine{
			Code:        l.Code,
			Description: l.Description,
			Amount:      l.Amount.Amount,
			Currency:    string(l.Amount.Currency),
		})
	}
	return QuoteResponse{
		Currency:  string(q.Currency),
		Subtotal:  q.Subtotal.Amount,
		Discounts: q.Discounts.Amount,
		TaxesFees: q.TaxesFees.Amount,
		Total:     q.Total.Amount,
		Lines:     lines,
	}
}
