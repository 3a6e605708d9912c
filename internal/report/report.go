// Package report renders run results for the console.
package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"InsiderSentinel/internal/calculator"
	"InsiderSentinel/internal/model"
	"InsiderSentinel/internal/recorder"
)

// TopTrades is how many trades the console report lists.
const TopTrades = 20

const ruleWidth = 145

// Run is the input of the console report.
type Run struct {
	TargetDate string
	RunTime    string
	Rules      model.Rules
	Summary    calculator.Summary
	Trades     []model.Trade
	Filings    int
	Skipped    int
}

// Money formats v as dollars with cents and thousands separators.
func Money(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// FormatRun renders the aggregate report for one run.
func FormatRun(r Run) string {
	var b strings.Builder
	rule := strings.Repeat("=", ruleWidth)

	b.WriteString("\n" + rule + "\n")
	b.WriteString(fmt.Sprintf("AGGREGATE INSIDER TRADING REPORT (Targeting: %s)\n", r.TargetDate))
	b.WriteString(fmt.Sprintf("Data Last Refreshed (Run Time): %s\n", r.RunTime))
	b.WriteString(rule + "\n")

	b.WriteString("FILTER CODES INCLUDED: " + strings.Join(r.Rules.TargetCodes(), ", ") + "\n")
	b.WriteString(fmt.Sprintf("Filings processed: %d (skipped %d)\n", r.Filings, r.Skipped))
	b.WriteString(fmt.Sprintf("Trades shown are value trades of at least %s and all non-value trades.\n", Money(r.Rules.MinTradeValue())))

	b.WriteString("\nSUMMARY OF TRANSACTIONS FOUND:\n")
	for _, cc := range r.Summary.SortedCodes() {
		b.WriteString(fmt.Sprintf("  Code %s: %d transactions\n", cc.Code, cc.Count))
	}
	b.WriteString(fmt.Sprintf("\nTotal Filtered Transactions Found: %d\n", r.Summary.TotalCount))
	b.WriteString(fmt.Sprintf("Total Estimated Dollar Value (value trades only): %s\n", Money(r.Summary.TotalValue)))
	b.WriteString(fmt.Sprintf("*** MEGA TRADES (>= %s) Found: %d valued at %s ***\n\n",
		Money(r.Rules.MegaTradeThreshold()), r.Summary.MegaTradeCount, Money(r.Summary.MegaTradeTotalValue)))

	b.WriteString(fmt.Sprintf("%-10s %-4s %-8s %12s %14s %20s %-25s %-25s %-20s\n",
		"Date", "Code", "Ticker", "Shares", "Price", "Value (USD)", "Company", "Filer", "Title"))
	b.WriteString(strings.Repeat("-", ruleWidth) + "\n")

	top := calculator.TopN(r.Trades, TopTrades)
	for _, t := range top {
		b.WriteString(FormatRow(t) + "\n")
	}
	b.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	b.WriteString(fmt.Sprintf("NOTE: Displaying top %d trades by value.\n", len(top)))
	return b.String()
}

// FormatRow renders one trade as a fixed-width report line.
func FormatRow(t model.Trade) string {
	price := "N/A"
	if t.Price > 0 {
		price = Money(t.Price)
	}
	return fmt.Sprintf("%-10s %-4s %-8s %12s %14s %20s %-25s %-25s %-20s",
		t.Date, t.Code, t.Ticker,
		humanize.FormatFloat("#,###.", t.Shares),
		price,
		Money(t.Value),
		truncate(t.CompanyName, 25),
		truncate(t.Filer, 25),
		truncate(t.PersonTitle, 20))
}

// FormatHistory renders recorded runs, newest first.
func FormatHistory(runs []recorder.RunRecord) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-20s %-10s %-6s %-18s %7s %7s %7s %18s %-15s\n",
		"Started", "Target", "Via", "Index", "Filings", "Skipped", "Trades", "Value (USD)", "Upload"))
	for _, r := range runs {
		b.WriteString(fmt.Sprintf("%-20s %-10s %-6s %-18s %7d %7d %7d %18s %-15s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.TargetDate, r.Trigger, r.IndexStatus,
			r.Filings, r.Skipped(), r.TradesKept, Money(r.TotalValue), r.UploadStatus))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
