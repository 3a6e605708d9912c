// Package pipeline runs one day's ingestion end to end: discover filings,
// extract trades, aggregate, upload, report and record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"InsiderSentinel/internal/calculator"
	"InsiderSentinel/internal/collector"
	apperr "InsiderSentinel/internal/errors"
	"InsiderSentinel/internal/model"
	"InsiderSentinel/internal/recorder"
	"InsiderSentinel/internal/report"
)

// Triggers recorded with each run.
const (
	TriggerCLI  = "cli"
	TriggerCron = "cron"
)

// Uploader delivers a finished batch to the trade store.
type Uploader interface {
	Upload(ctx context.Context, payload model.UploadPayload) (string, error)
}

// Options selects what one run does.
type Options struct {
	Date    time.Time
	Upload  bool
	Trigger string
}

// Result is what a run produced.
type Result struct {
	Record  recorder.RunRecord
	Batch   *collector.Batch
	Summary calculator.Summary
	Payload model.UploadPayload
}

// Pipeline wires the ingestion stages together. Uploader and Out are
// optional; Recorder defaults to a no-op.
type Pipeline struct {
	Collector *collector.Collector
	Rules     model.Rules
	Uploader  Uploader
	Recorder  recorder.Recorder
	Out       io.Writer

	logger *zap.Logger
	now    func() time.Time
}

// New creates a Pipeline.
func New(col *collector.Collector, rules model.Rules, up Uploader, rec recorder.Recorder, out io.Writer, logger *zap.Logger) *Pipeline {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		Collector: col,
		Rules:     rules,
		Uploader:  up,
		Recorder:  rec,
		Out:       out,
		logger:    logger.Named("pipeline"),
		now:       time.Now,
	}
}

// LastBusinessDay returns the most recent weekday strictly before now, at
// midnight in now's location.
func LastBusinessDay(now time.Time) time.Time {
	d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// Run executes one ingestion. Index, filing and upload failures are
// recorded and logged but do not fail the run; the returned error is
// non-nil only when ctx ends first.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	started := p.now()
	if opts.Date.IsZero() {
		opts.Date = LastBusinessDay(started)
	}
	if opts.Trigger == "" {
		opts.Trigger = TriggerCLI
	}
	day := opts.Date.Format("2006-01-02")
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID), zap.String("date", day))
	log.Info("run started", zap.String("trigger", opts.Trigger), zap.Bool("upload", opts.Upload))

	batch, collectErr := p.Collector.Collect(ctx, opts.Date)
	summary := calculator.Summarize(batch.Trades, p.Rules.MegaTradeThreshold())
	payload := model.UploadPayload{
		RunTime: started.Format(time.RFC3339),
		Trades:  batch.Trades,
		Summary: summary.UploadSummary(p.Rules.MinTradeValue()),
	}

	rec := recorder.RunRecord{
		ID:                  runID,
		StartedAt:           started,
		TargetDate:          day,
		Trigger:             opts.Trigger,
		IndexStatus:         recorder.IndexOK,
		Filings:             batch.Filings,
		Parsed:              batch.Parsed,
		TradesKept:          len(batch.Trades),
		Defaulted:           batch.Defaulted,
		Failures:            batch.Failures,
		TotalValue:          summary.TotalValue,
		MegaTradeCount:      summary.MegaTradeCount,
		MegaTradeTotalValue: summary.MegaTradeTotalValue,
		UploadStatus:        recorder.UploadSkipped,
	}
	if batch.IndexErr != nil {
		rec.IndexStatus = apperr.KindName(batch.IndexErr)
	}

	if opts.Upload && p.Uploader != nil && collectErr == nil {
		rec.UploadStatus, rec.UploadMessage = p.upload(ctx, payload, log)
	}

	if p.Out != nil {
		fmt.Fprint(p.Out, report.FormatRun(report.Run{
			TargetDate: day,
			RunTime:    payload.RunTime,
			Rules:      p.Rules,
			Summary:    summary,
			Trades:     batch.Trades,
			Filings:    batch.Filings,
			Skipped:    batch.FailureCount(),
		}))
	}

	rec.FinishedAt = p.now()
	if err := p.Recorder.RecordRun(&rec); err != nil {
		log.Error("record run failed", zap.Error(err))
	}
	log.Info("run finished",
		zap.String("index", rec.IndexStatus),
		zap.Int("trades", rec.TradesKept),
		zap.String("upload", rec.UploadStatus),
		zap.Duration("elapsed", rec.FinishedAt.Sub(started)))

	res := &Result{Record: rec, Batch: batch, Summary: summary, Payload: payload}
	if collectErr != nil {
		return res, collectErr
	}
	return res, nil
}

func (p *Pipeline) upload(ctx context.Context, payload model.UploadPayload, log *zap.Logger) (status, message string) {
	msg, err := p.Uploader.Upload(ctx, payload)
	switch {
	case err == nil:
		return recorder.UploadOK, msg
	case errors.Is(err, apperr.ErrUnauthorized):
		log.Error("upload rejected: check the dashboard api key", zap.Error(err))
		return recorder.UploadUnauthorized, err.Error()
	case errors.Is(err, apperr.ErrInvalidPayload):
		log.Error("upload rejected: server refused the payload", zap.Error(err))
		return recorder.UploadInvalidPayload, err.Error()
	default:
		log.Error("upload failed", zap.Error(err))
		return recorder.UploadFailed, err.Error()
	}
}
