package uploader

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperr "InsiderSentinel/internal/errors"
	"InsiderSentinel/internal/model"
)

func newTestUploader(srv *httptest.Server) *Uploader {
	u := New(srv.URL+"/api/upload_trades", srv.URL+"/api/clean_data", "secret", "", time.Second, time.Second, nil)
	u.InitialInterval = time.Millisecond
	return u
}

func TestUpload_SendsPayloadWithKey(t *testing.T) {
	var got model.UploadPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(APIKeyHeader) != "secret" {
			t.Errorf("api key header = %q", r.Header.Get(APIKeyHeader))
		}
		if r.URL.Path != "/api/upload_trades" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"message":"Successfully processed."}`))
	}))
	defer srv.Close()

	payload := model.UploadPayload{
		RunTime: "2024-03-02T06:30:00Z",
		Trades:  []model.Trade{{Date: "2024-03-01", Code: "P", Ticker: "ACME", Shares: 1, Price: 2, Value: 2}},
		Summary: model.UploadSummary{MegaTradeCount: 1, MegaTradeTotalValue: 12_000_000, MinTradeValue: 1_000_000},
	}
	msg, err := newTestUploader(srv).Upload(context.Background(), payload)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if msg != "Successfully processed." {
		t.Errorf("message = %q", msg)
	}
	if got.RunTime != payload.RunTime || len(got.Trades) != 1 || got.Summary != payload.Summary {
		t.Errorf("server received %+v", got)
	}
}

func TestUpload_PermanentErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusForbidden, apperr.ErrUnauthorized},
		{http.StatusBadRequest, apperr.ErrInvalidPayload},
	}
	for _, tt := range tests {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"message":"nope"}`))
		}))

		_, err := newTestUploader(srv).Upload(context.Background(), model.UploadPayload{})
		srv.Close()
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
		if calls.Load() != 1 {
			t.Errorf("status %d: %d attempts, want 1", tt.status, calls.Load())
		}
	}
}

func TestUpload_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	msg, err := newTestUploader(srv).Upload(context.Background(), model.UploadPayload{})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if msg != "ok" || calls.Load() != 3 {
		t.Errorf("message = %q after %d calls", msg, calls.Load())
	}
}

func TestCleanup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/clean_data" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"message":"Removed 0 duplicates."}`))
	}))
	defer srv.Close()

	msg, err := newTestUploader(srv).Cleanup(context.Background())
	if err != nil || msg != "Removed 0 duplicates." {
		t.Errorf("Cleanup = %q, %v", msg, err)
	}
}
