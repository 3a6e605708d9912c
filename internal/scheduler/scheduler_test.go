package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"InsiderSentinel/internal/collector"
	"InsiderSentinel/internal/model"
	"InsiderSentinel/internal/pipeline"
	"InsiderSentinel/internal/recorder"
)

type memRecorder struct {
	recorder.NoopRecorder
	runs []recorder.RunRecord
}

func (m *memRecorder) RecordRun(r *recorder.RunRecord) error {
	m.runs = append(m.runs, *r)
	return nil
}

type fakeCleaner struct {
	calls int
	err   error
}

func (f *fakeCleaner) Cleanup(context.Context) (string, error) {
	f.calls++
	return "cleaned", f.err
}

func newTestScheduler(f *collector.MockFetcher, rec recorder.Recorder, c Cleaner) *Scheduler {
	rules := model.DefaultRules()
	col := collector.NewCollector(
		collector.NewIndexFetcher(f, "https://archive.test", rules.FormType(), time.Second, nil),
		collector.NewFilingParser(f, rules, time.Second, nil),
		1, nil)
	p := pipeline.New(col, rules, nil, rec, nil, nil)
	return NewScheduler(context.Background(), p, c, nil)
}

func TestRegisterAll(t *testing.T) {
	s := newTestScheduler(&collector.MockFetcher{}, nil, &fakeCleaner{})
	if err := s.RegisterAll("0 30 6 * * 2-6", "0 0 3 * * 0"); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 2 {
		t.Errorf("entries = %d, want 2", n)
	}

	s = newTestScheduler(&collector.MockFetcher{}, nil, &fakeCleaner{})
	if err := s.RegisterAll("0 30 6 * * 2-6", ""); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 1 {
		t.Errorf("entries = %d, want 1 when cleanup is disabled", n)
	}

	s = newTestScheduler(&collector.MockFetcher{}, nil, nil)
	if err := s.RegisterAll("not a cron", ""); err == nil {
		t.Error("expected error for invalid daily expression")
	}
}

func TestRunDailyNow_TargetsLastBusinessDay(t *testing.T) {
	f := &collector.MockFetcher{}
	rec := &memRecorder{}
	s := newTestScheduler(f, rec, nil)
	s.now = func() time.Time { return time.Date(2024, 3, 4, 6, 30, 0, 0, time.UTC) }

	s.RunDailyNow()

	if len(rec.runs) != 1 {
		t.Fatalf("recorded %d runs, want 1", len(rec.runs))
	}
	if got := rec.runs[0]; got.TargetDate != "2024-03-01" || got.Trigger != pipeline.TriggerCron {
		t.Errorf("run = %+v", got)
	}
	want := collector.IndexURL("https://archive.test", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	if calls := f.Calls(); len(calls) != 1 || calls[0] != want {
		t.Errorf("calls = %v, want [%s]", calls, want)
	}
}

func TestCleanupTask(t *testing.T) {
	c := &fakeCleaner{}
	s := newTestScheduler(&collector.MockFetcher{}, nil, c)
	s.cleanupTask()
	c.err = errors.New("boom")
	s.cleanupTask()
	if c.calls != 2 {
		t.Errorf("calls = %d, want 2", c.calls)
	}
}

func TestScheduledJobPanicIsRecovered(t *testing.T) {
	s := newTestScheduler(&collector.MockFetcher{}, nil, nil)
	calls := 0
	id, err := s.Cron.AddFunc("0 0 0 * * *", func() {
		calls++
		panic("boom")
	})
	if err != nil {
		t.Fatalf("AddFunc: %v", err)
	}

	job := s.Cron.Entry(id).WrappedJob
	job.Run()
	job.Run()
	if calls != 2 {
		t.Errorf("calls = %d, want 2: a panic must not leave the job marked as running", calls)
	}
}

func TestRunDailyNow_RecoversPanic(t *testing.T) {
	s := newTestScheduler(&collector.MockFetcher{}, nil, nil)
	// A pipeline without a collector panics on its first step.
	s.Pipeline = pipeline.New(nil, model.DefaultRules(), nil, nil, nil, nil)
	s.RunDailyNow()
}
