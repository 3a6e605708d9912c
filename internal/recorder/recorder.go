package recorder

import (
	"time"

	apperr "InsiderSentinel/internal/errors"
)

// Upload outcomes stored with each run.
const (
	UploadSkipped        = "skipped"
	UploadOK             = "ok"
	UploadUnauthorized   = "unauthorized"
	UploadInvalidPayload = "invalid_payload"
	UploadFailed         = "failed"
)

// IndexOK is the index status of a run whose index was read.
const IndexOK = "ok"

// RunRecord holds everything worth keeping about one pipeline run.
type RunRecord struct {
	ID                  string
	StartedAt           time.Time
	FinishedAt          time.Time
	TargetDate          string
	Trigger             string // "cli" or "cron"
	IndexStatus         string // IndexOK or the failure kind name
	Filings             int
	Parsed              int
	TradesKept          int
	Defaulted           int
	Failures            map[string]int // failure kind -> filings
	TotalValue          float64
	MegaTradeCount      int
	MegaTradeTotalValue float64
	UploadStatus        string
	UploadMessage       string
}

// Skipped is the number of filings the run dropped. Index failures are not
// counted since no filing was seen.
func (r RunRecord) Skipped() int {
	n := 0
	for kind, c := range r.Failures {
		if !apperr.IsIndexKind(kind) {
			n += c
		}
	}
	return n
}

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordRun(rec *RunRecord) error
	RecentRuns(limit int) ([]RunRecord, error)
	Close() error
}
