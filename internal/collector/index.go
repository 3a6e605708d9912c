package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	apperr "InsiderSentinel/internal/errors"
)

// IndexURL returns the master index location for date.
func IndexURL(baseURL string, date time.Time) string {
	quarter := (int(date.Month())-1)/3 + 1
	return fmt.Sprintf("%s/Archives/edgar/daily-index/%d/QTR%d/master.%s.idx",
		strings.TrimRight(baseURL, "/"), date.Year(), quarter, date.Format("20060102"))
}

// ParseIndex scans a pipe-delimited master index and returns the absolute
// URLs of every filing of formType, in index order. Header lines and lines
// with fewer than five fields are ignored.
func ParseIndex(baseURL string, body []byte, formType string) []string {
	base := strings.TrimRight(baseURL, "/")
	var urls []string
	for _, line := range strings.Split(string(body), "\n") {
		parts := strings.Split(strings.TrimRight(line, "\r"), "|")
		if len(parts) < 5 || parts[2] != formType {
			continue
		}
		urls = append(urls, base+"/Archives/"+strings.TrimSpace(parts[4]))
	}
	return urls
}

// IndexFetcher discovers the filings published on a given day.
type IndexFetcher struct {
	fetcher  Fetcher
	baseURL  string
	formType string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewIndexFetcher creates a new IndexFetcher.
func NewIndexFetcher(fetcher Fetcher, baseURL, formType string, timeout time.Duration, logger *zap.Logger) *IndexFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexFetcher{
		fetcher:  fetcher,
		baseURL:  baseURL,
		formType: formType,
		timeout:  timeout,
		logger:   logger.Named("index"),
	}
}

// FilingURLs downloads the index for date and filters it. Failures never
// stop the caller: the list is empty and the returned error is a StageError
// of kind ErrIndexUnavailable (404, usually not yet published) or
// ErrIndexFetchFailed (anything else).
func (x *IndexFetcher) FilingURLs(ctx context.Context, date time.Time) ([]string, error) {
	indexURL := IndexURL(x.baseURL, date)
	day := date.Format("2006-01-02")

	body, err := x.fetcher.Fetch(ctx, indexURL, x.timeout)
	if err != nil {
		if IsNotFound(err) {
			x.logger.Warn("daily index not found", zap.String("date", day), zap.String("url", indexURL))
			return nil, apperr.NewStageError(apperr.StageIndex, apperr.ErrIndexUnavailable, indexURL, err)
		}
		x.logger.Error("daily index download failed", zap.String("date", day), zap.String("url", indexURL), zap.Error(err))
		return nil, apperr.NewStageError(apperr.StageIndex, apperr.ErrIndexFetchFailed, indexURL, err)
	}

	urls := ParseIndex(x.baseURL, body, x.formType)
	x.logger.Info("daily index loaded", zap.String("date", day), zap.String("form_type", x.formType), zap.Int("filings", len(urls)))
	return urls, nil
}
