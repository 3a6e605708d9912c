// Package errors provides the error taxonomy shared by the ingestion
// pipeline and the trade store.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure kind.
var (
	ErrIndexUnavailable    = errors.New("daily index not published")
	ErrIndexFetchFailed    = errors.New("daily index fetch failed")
	ErrFilingFetchFailed   = errors.New("filing fetch failed")
	ErrMalformedDocument   = errors.New("malformed filing document")
	ErrParseFailed         = errors.New("filing xml parse failed")
	ErrFieldCoercionFailed = errors.New("field coercion failed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidPayload      = errors.New("invalid payload")
)

// kinds lists every sentinel in the order Kind checks them.
var kinds = []error{
	ErrIndexUnavailable,
	ErrIndexFetchFailed,
	ErrFilingFetchFailed,
	ErrMalformedDocument,
	ErrParseFailed,
	ErrFieldCoercionFailed,
	ErrUnauthorized,
	ErrInvalidPayload,
}

// Stage names a step of the per-filing pipeline.
type Stage string

const (
	StageIndex    Stage = "index"
	StageFetch    Stage = "fetch"
	StageSanitize Stage = "sanitize"
	StageParse    Stage = "parse"
	StageExtract  Stage = "extract"
)

// StageError records which stage failed, for which document, and why.
// Kind is always one of the sentinel errors above.
type StageError struct {
	Stage Stage
	Kind  error
	URL   string
	Err   error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Stage, e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.URL, e.Kind)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewStageError creates a new StageError.
func NewStageError(stage Stage, kind error, url string, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, URL: url, Err: err}
}

// Kind returns the sentinel error err carries, or nil if it carries none.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName returns a short stable label for the failure kind of err,
// suitable for counters and log fields.
func KindName(err error) string {
	switch Kind(err) {
	case ErrIndexUnavailable:
		return "index_unavailable"
	case ErrIndexFetchFailed:
		return "index_fetch_failed"
	case ErrFilingFetchFailed:
		return "filing_fetch_failed"
	case ErrMalformedDocument:
		return "malformed_document"
	case ErrParseFailed:
		return "parse_failed"
	case ErrFieldCoercionFailed:
		return "field_coercion_failed"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrInvalidPayload:
		return "invalid_payload"
	default:
		return "unknown"
	}
}

// IsIndexKind reports whether name, as returned by KindName, is a failure of
// the daily index rather than of an individual filing.
func IsIndexKind(name string) bool {
	return name == KindName(ErrIndexUnavailable) || name == KindName(ErrIndexFetchFailed)
}
