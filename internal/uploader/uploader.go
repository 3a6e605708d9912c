// Package uploader delivers trade batches and maintenance requests to the
// trade store over HTTP.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperr "InsiderSentinel/internal/errors"
	"InsiderSentinel/internal/model"
)

// APIKeyHeader carries the shared secret on every store request.
const APIKeyHeader = "X-API-KEY"

// Uploader posts to the store's write endpoints. Transport errors and 5xx
// answers are retried with exponential backoff; 403 and 400 are final.
type Uploader struct {
	UploadURL  string
	CleanupURL string
	APIKey     string
	Client     *http.Client

	InitialInterval time.Duration
	MaxElapsed      time.Duration

	logger *zap.Logger
}

// New creates an Uploader with optional proxy support.
func New(uploadURL, cleanupURL, apiKey, proxyURL string, timeout, maxElapsed time.Duration, logger *zap.Logger) *Uploader {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{
		UploadURL:       uploadURL,
		CleanupURL:      cleanupURL,
		APIKey:          apiKey,
		Client:          &http.Client{Timeout: timeout, Transport: transport},
		InitialInterval: 500 * time.Millisecond,
		MaxElapsed:      maxElapsed,
		logger:          logger.Named("uploader"),
	}
}

// Upload sends one run's payload and returns the store's message.
func (u *Uploader) Upload(ctx context.Context, payload model.UploadPayload) (string, error) {
	if payload.Trades == nil {
		payload.Trades = []model.Trade{}
	}
	msg, err := u.post(ctx, u.UploadURL, payload)
	if err != nil {
		return "", fmt.Errorf("upload %d trades: %w", len(payload.Trades), err)
	}
	u.logger.Info("upload accepted", zap.Int("trades", len(payload.Trades)), zap.String("message", msg))
	return msg, nil
}

// Cleanup asks the store to deduplicate its trade file.
func (u *Uploader) Cleanup(ctx context.Context) (string, error) {
	msg, err := u.post(ctx, u.CleanupURL, struct{}{})
	if err != nil {
		return "", fmt.Errorf("cleanup: %w", err)
	}
	return msg, nil
}

type messageBody struct {
	Message string `json:"message"`
}

func (u *Uploader) post(ctx context.Context, target string, body any) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	var message string
	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(APIKeyHeader, u.APIKey)

		resp, err := u.Client.Do(req)
		if err != nil {
			return fmt.Errorf("post %s: %w", target, err)
		}
		defer resp.Body.Close()
		msg := readMessage(resp.Body)

		switch {
		case resp.StatusCode == http.StatusOK:
			message = msg
			return nil
		case resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: %s", apperr.ErrUnauthorized, msg))
		case resp.StatusCode == http.StatusBadRequest:
			return backoff.Permanent(fmt.Errorf("%w: %s", apperr.ErrInvalidPayload, msg))
		case resp.StatusCode >= 500:
			return fmt.Errorf("store error: status %d: %s", resp.StatusCode, msg)
		default:
			return backoff.Permanent(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = u.InitialInterval
	b.MaxElapsedTime = u.MaxElapsed
	notify := func(err error, wait time.Duration) {
		u.logger.Warn("store request failed, retrying",
			zap.String("url", target), zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return "", err
	}
	return message, nil
}

// readMessage extracts {"message": ...} from a store response, falling back
// to the raw body.
func readMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	var mb messageBody
	if err := json.Unmarshal(raw, &mb); err == nil && mb.Message != "" {
		return mb.Message
	}
	return string(bytes.TrimSpace(raw))
}
