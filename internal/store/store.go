// Package store persists the deduplicated trade set behind a single JSON
// file and answers queries over it.
package store

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"InsiderSentinel/internal/model"
)

// Store owns the trade file. Every load-merge-save runs under one lock, so
// concurrent uploads never lose each other's trades.
type Store struct {
	mu       sync.RWMutex
	filePath string
	logger   *zap.Logger
}

// New creates a Store backed by filePath, creating its directory.
func New(filePath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{filePath: filePath, logger: logger.Named("store")}, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.filePath }

// Upload merges incoming into the persisted set.
func (s *Store) Upload(incoming []model.Trade) (model.MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := LoadTrades(s.filePath)
	if err != nil {
		return model.MergeResult{}, err
	}
	merged, added := merge(existing, incoming)
	if err := SaveTrades(s.filePath, merged); err != nil {
		return model.MergeResult{}, fmt.Errorf("save trades: %w", err)
	}

	res := model.MergeResult{
		Total:             len(merged),
		Added:             added,
		DuplicatesRemoved: len(existing) + len(incoming) - len(merged),
	}
	s.logger.Info("trades merged",
		zap.Int("received", len(incoming)),
		zap.Int("added", res.Added),
		zap.Int("duplicates_removed", res.DuplicatesRemoved),
		zap.Int("total", res.Total))
	return res, nil
}

// Cleanup deduplicates the persisted set without new input. The file is
// left untouched when there is nothing to store.
func (s *Store) Cleanup() (model.MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := LoadTrades(s.filePath)
	if err != nil {
		return model.MergeResult{}, err
	}
	if len(existing) == 0 {
		return model.MergeResult{}, nil
	}
	merged := Merge(existing, nil)
	if err := SaveTrades(s.filePath, merged); err != nil {
		return model.MergeResult{}, fmt.Errorf("save trades: %w", err)
	}

	res := model.MergeResult{Total: len(merged), DuplicatesRemoved: len(existing) - len(merged)}
	s.logger.Info("trade file cleaned", zap.Int("duplicates_removed", res.DuplicatesRemoved), zap.Int("total", res.Total))
	return res, nil
}

// Sort keys accepted by Query.
const (
	SortByDate        = "date"
	SortByTicker      = "ticker"
	SortByCompanyName = "company_name"
	SortByValue       = "value"
	SortByFiler       = "filer"
)

// QueryOptions selects and orders trades. The zero value returns every
// trade, newest date first.
type QueryOptions struct {
	MinValue  float64
	Ticker    string // exact match, case-insensitive; empty means any
	SortBy    string // one of the SortBy constants; anything else sorts by date
	Ascending bool
}

// Query returns the stored trades matching opts. The sort is stable.
func (s *Store) Query(opts QueryOptions) ([]model.Trade, error) {
	s.mu.RLock()
	trades, err := LoadTrades(s.filePath)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	ticker := strings.ToUpper(strings.TrimSpace(opts.Ticker))
	out := make([]model.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Value < opts.MinValue {
			continue
		}
		if ticker != "" && strings.ToUpper(t.Ticker) != ticker {
			continue
		}
		out = append(out, t)
	}

	compare := comparator(opts.SortBy)
	slices.SortStableFunc(out, func(a, b model.Trade) int {
		if opts.Ascending {
			return compare(a, b)
		}
		return compare(b, a)
	})
	return out, nil
}

func comparator(sortBy string) func(a, b model.Trade) int {
	switch sortBy {
	case SortByTicker:
		return func(a, b model.Trade) int { return cmp.Compare(a.Ticker, b.Ticker) }
	case SortByCompanyName:
		return func(a, b model.Trade) int { return cmp.Compare(a.CompanyName, b.CompanyName) }
	case SortByValue:
		return func(a, b model.Trade) int { return cmp.Compare(a.Value, b.Value) }
	case SortByFiler:
		return func(a, b model.Trade) int { return cmp.Compare(a.Filer, b.Filer) }
	default:
		return func(a, b model.Trade) int { return cmp.Compare(a.Date, b.Date) }
	}
}

// LatestDate returns the greatest trade date on file. Trades without a date
// are ignored; "N/A" means there is nothing dated.
func (s *Store) LatestDate() (string, error) {
	s.mu.RLock()
	trades, err := LoadTrades(s.filePath)
	s.mu.RUnlock()
	if err != nil {
		return "", err
	}
	latest := ""
	for _, t := range trades {
		if t.Date != model.NotAvailable && t.Date > latest {
			latest = t.Date
		}
	}
	if latest == "" {
		return model.NotAvailable, nil
	}
	return latest, nil
}
