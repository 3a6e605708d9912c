package collector

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperr "InsiderSentinel/internal/errors"
	"InsiderSentinel/internal/model"
)

// MockFetcher serves fixed documents by URL for development and testing.
// Unknown URLs answer 404.
type MockFetcher struct {
	Docs map[string]string
	Errs map[string]error

	mu    sync.Mutex
	calls []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ context.Context, url string, _ time.Duration) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	m.mu.Unlock()

	if err, ok := m.Errs[url]; ok {
		return nil, err
	}
	if doc, ok := m.Docs[url]; ok {
		return []byte(doc), nil
	}
	return nil, &StatusError{URL: url, StatusCode: http.StatusNotFound}
}

// Calls returns the URLs requested so far, in request order.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Batch is the outcome of collecting one day of filings.
type Batch struct {
	Date      time.Time
	IndexErr  error // non-nil when the index could not be used
	Filings   int   // filings listed in the index
	Parsed    int   // filings processed without a skip
	Defaulted int
	Trades    []model.Trade  // in index order
	Failures  map[string]int // failure kind -> filings
}

// FailureCount returns the number of filings that were skipped.
func (b *Batch) FailureCount() int {
	n := 0
	for kind, c := range b.Failures {
		if apperr.IsIndexKind(kind) {
			continue
		}
		n += c
	}
	return n
}

// Collector orchestrates index discovery and filing parsing for one day.
type Collector struct {
	Index   *IndexFetcher
	Parser  *FilingParser
	Workers int
	logger  *zap.Logger
}

// NewCollector creates a new Collector. workers below 1 is treated as 1.
func NewCollector(index *IndexFetcher, parser *FilingParser, workers int, logger *zap.Logger) *Collector {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{Index: index, Parser: parser, Workers: workers, logger: logger.Named("collector")}
}

// Collect fetches the index for date and parses every listed filing with a
// bounded pool of workers. Per-filing failures are counted, not returned;
// an index failure yields an empty batch with IndexErr set. The only error
// returned is ctx's, after which the batch holds what was finished.
func (c *Collector) Collect(ctx context.Context, date time.Time) (*Batch, error) {
	batch := &Batch{Date: date, Failures: make(map[string]int)}
	day := date.Format("2006-01-02")

	urls, err := c.Index.FilingURLs(ctx, date)
	if err != nil {
		batch.IndexErr = err
		batch.Failures[apperr.KindName(err)]++
		return batch, nil
	}
	batch.Filings = len(urls)

	results := make([]FilingResult, len(urls))
	var g errgroup.Group
	g.SetLimit(c.Workers)
	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = c.Parser.Parse(ctx, u)
			c.logger.Debug("filing done",
				zap.Int("n", i+1), zap.Int("of", len(urls)),
				zap.Int("trades", len(results[i].Trades)))
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.URL == "" {
			continue
		}
		if r.Err != nil {
			batch.Failures[apperr.KindName(r.Err)]++
			continue
		}
		batch.Parsed++
		batch.Defaulted += r.Defaulted
		batch.Trades = append(batch.Trades, r.Trades...)
	}

	c.logger.Info("collection finished",
		zap.String("date", day),
		zap.Int("filings", batch.Filings),
		zap.Int("parsed", batch.Parsed),
		zap.Int("skipped", batch.FailureCount()),
		zap.Int("trades", len(batch.Trades)))

	if err := ctx.Err(); err != nil {
		return batch, fmt.Errorf("collect %s: %w", day, err)
	}
	return batch, nil
}
