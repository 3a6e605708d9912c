// Package calculator computes batch statistics over extracted trades.
package calculator

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"InsiderSentinel/internal/model"
)

// CodeCount is one row of the per-code breakdown.
type CodeCount struct {
	Code  string
	Count int
}

// Summary holds the aggregate figures of one batch.
type Summary struct {
	CodeCounts          map[string]int
	TotalCount          int
	TotalValue          float64 // value trades only
	MegaTradeCount      int
	MegaTradeTotalValue float64
}

// Summarize counts trades per code and totals the dollar value of value
// trades. Mega trades are value trades at or above megaThreshold.
func Summarize(trades []model.Trade, megaThreshold float64) Summary {
	valueTrades := lo.Filter(trades, func(t model.Trade, _ int) bool { return t.IsValueTrade })
	megaTrades := lo.Filter(valueTrades, func(t model.Trade, _ int) bool { return t.Value >= megaThreshold })

	return Summary{
		CodeCounts:          lo.CountValuesBy(trades, func(t model.Trade) string { return t.Code }),
		TotalCount:          len(trades),
		TotalValue:          sumValue(valueTrades),
		MegaTradeCount:      len(megaTrades),
		MegaTradeTotalValue: sumValue(megaTrades),
	}
}

func sumValue(trades []model.Trade) float64 {
	total := decimal.Zero
	for _, t := range trades {
		total = total.Add(decimal.NewFromFloat(t.Value))
	}
	return total.InexactFloat64()
}

// SortedCodes returns the code breakdown ordered by count descending, then
// by code.
func (s Summary) SortedCodes() []CodeCount {
	rows := make([]CodeCount, 0, len(s.CodeCounts))
	for code, n := range s.CodeCounts {
		rows = append(rows, CodeCount{Code: code, Count: n})
	}
	slices.SortFunc(rows, func(a, b CodeCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return rows
}

// UploadSummary converts s into the summary block of an upload payload.
func (s Summary) UploadSummary(minTradeValue float64) model.UploadSummary {
	return model.UploadSummary{
		MegaTradeCount:      s.MegaTradeCount,
		MegaTradeTotalValue: s.MegaTradeTotalValue,
		MinTradeValue:       minTradeValue,
	}
}

// SortByValueDesc returns a copy of trades ordered by value, largest first.
// Equal values keep their input order.
func SortByValueDesc(trades []model.Trade) []model.Trade {
	sorted := slices.Clone(trades)
	slices.SortStableFunc(sorted, func(a, b model.Trade) int {
		return cmp.Compare(b.Value, a.Value)
	})
	return sorted
}

// TopN returns the n most valuable trades.
func TopN(trades []model.Trade, n int) []model.Trade {
	sorted := SortByValueDesc(trades)
	if n < 0 {
		n = 0
	}
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
