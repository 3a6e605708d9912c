package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	apperr "InsiderSentinel/internal/errors"
	"InsiderSentinel/internal/model"
)

var collectDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// newDay builds a fetcher serving an index of n filings. Filing i holds one
// M transaction of i+1 shares; filings listed in broken return garbage.
func newDay(n int, broken map[int]bool) *MockFetcher {
	f := &MockFetcher{Docs: make(map[string]string)}
	var idx strings.Builder
	idx.WriteString("CIK|Company Name|Form Type|Date Filed|File Name\n")
	for i := 0; i < n; i++ {
		path := fmt.Sprintf("edgar/data/%d/filing.txt", i)
		fmt.Fprintf(&idx, "%d|Co %d|4|20240301|%s\n", i, i, path)
		doc := form4(directorOwner, nonDerivative("M", "2024-03-01", fmt.Sprint(i+1), ""))
		if broken[i] {
			doc = "<html>oops</html>"
		}
		f.Docs[testBase+"/Archives/"+path] = doc
	}
	f.Docs[IndexURL(testBase, collectDate)] = idx.String()
	return f
}

func newTestCollector(f Fetcher, workers int) *Collector {
	index := NewIndexFetcher(f, testBase, "4", time.Second, nil)
	parser := NewFilingParser(f, model.DefaultRules(), time.Second, nil)
	return NewCollector(index, parser, workers, nil)
}

func TestCollect_IndexOrderAcrossWorkers(t *testing.T) {
	for _, workers := range []int{1, 4, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			c := newTestCollector(newDay(20, map[int]bool{3: true, 11: true}), workers)
			batch, err := c.Collect(context.Background(), collectDate)
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			if batch.Filings != 20 || batch.Parsed != 18 {
				t.Errorf("Filings = %d, Parsed = %d", batch.Filings, batch.Parsed)
			}
			if got := batch.Failures["malformed_document"]; got != 2 {
				t.Errorf("malformed failures = %d, want 2", got)
			}
			if batch.FailureCount() != 2 {
				t.Errorf("FailureCount = %d, want 2", batch.FailureCount())
			}
			if len(batch.Trades) != 18 {
				t.Fatalf("got %d trades, want 18", len(batch.Trades))
			}
			for i := 1; i < len(batch.Trades); i++ {
				if batch.Trades[i].Shares <= batch.Trades[i-1].Shares {
					t.Fatalf("trades out of index order at %d: %v after %v", i, batch.Trades[i].Shares, batch.Trades[i-1].Shares)
				}
			}
		})
	}
}

func TestCollect_IndexUnavailable(t *testing.T) {
	c := newTestCollector(&MockFetcher{}, 2)
	batch, err := c.Collect(context.Background(), collectDate)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !errors.Is(batch.IndexErr, apperr.ErrIndexUnavailable) {
		t.Errorf("IndexErr = %v", batch.IndexErr)
	}
	if batch.Filings != 0 || len(batch.Trades) != 0 || batch.FailureCount() != 0 {
		t.Errorf("batch = %+v", batch)
	}
}

func TestCollect_CancelledContext(t *testing.T) {
	c := newTestCollector(newDay(5, nil), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := c.Collect(ctx, collectDate)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if batch == nil || batch.Parsed != 0 {
		t.Errorf("batch = %+v", batch)
	}
}
