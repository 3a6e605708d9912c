package model

import "github.com/shopspring/decimal"

// Placeholders used when a filing omits a field.
const (
	NotAvailable = "N/A"
	Unknown      = "UNKNOWN"
)

// Trade is one insider transaction extracted from a filing.
type Trade struct {
	Date         string  `json:"date"`
	Code         string  `json:"code"`
	Ticker       string  `json:"ticker"`
	Shares       float64 `json:"shares"`
	Price        float64 `json:"price"`
	Value        float64 `json:"value"` // Shares * Price, fixed at creation
	CompanyName  string  `json:"company_name"`
	Filer        string  `json:"filer"`
	PersonTitle  string  `json:"person_title"`
	IsValueTrade bool    `json:"is_value_trade"`
}

// NewTrade builds a Trade for one transaction of a filing. Value and
// IsValueTrade are derived here and nowhere else.
func NewTrade(meta FilingMetadata, date, code string, shares, price float64, rules Rules) Trade {
	return Trade{
		Date:         date,
		Code:         code,
		Ticker:       meta.IssuerTicker,
		Shares:       shares,
		Price:        price,
		Value:        shares * price,
		CompanyName:  meta.IssuerName,
		Filer:        meta.FilerName,
		PersonTitle:  meta.Relationship,
		IsValueTrade: rules.IsValueCode(code),
	}
}

// DedupKey identifies the economic event behind a Trade. Two trades with
// equal keys are the same event. Numeric members hold normalized decimal
// strings, so 1000 and 1000.0 produce the same key.
type DedupKey struct {
	Date   string
	Ticker string
	Filer  string
	Code   string
	Shares string
	Price  string
}

// Key returns the dedup key of t.
func (t Trade) Key() DedupKey {
	return DedupKey{
		Date:   t.Date,
		Ticker: t.Ticker,
		Filer:  t.Filer,
		Code:   t.Code,
		Shares: normalizeDecimal(t.Shares),
		Price:  normalizeDecimal(t.Price),
	}
}

func normalizeDecimal(f float64) string {
	return decimal.NewFromFloat(f).String()
}
