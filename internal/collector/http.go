package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const defaultRequestTimeout = 30 * time.Second

// HTTPFetcher implements Fetcher against the public filing archive. Every
// request waits on one shared limiter, so the aggregate rate stays under the
// configured ceiling no matter how many workers use the fetcher.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	Limiter   *rate.Limiter
}

// NewHTTPFetcher creates a fetcher with optional proxy support. An interval
// of zero disables throttling.
func NewHTTPFetcher(userAgent, proxyURL string, interval time.Duration) *HTTPFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &HTTPFetcher{
		Client:    &http.Client{Transport: transport},
		UserAgent: userAgent,
		Limiter:   rate.NewLimiter(limit, 1),
	}
}

func (f *HTTPFetcher) Name() string { return "sec-archive" }

// Fetch waits for a rate-limit token, then downloads target. ctx bounds the
// wait; once the request is sent only timeout bounds it.
func (f *HTTPFetcher) Fetch(ctx context.Context, target string, timeout time.Duration) ([]byte, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	return body, nil
}
