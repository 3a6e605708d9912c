package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"InsiderSentinel/internal/pipeline"
)

// Cleaner deduplicates the remote trade store.
type Cleaner interface {
	Cleanup(ctx context.Context) (string, error)
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline *pipeline.Pipeline
	Cleaner  Cleaner
	Ctx      context.Context

	logger  *zap.Logger
	cronLog cron.Logger
	now     func() time.Time
}

// NewScheduler creates a new Scheduler. A run still in progress when its
// next tick fires causes that tick to be skipped. A panicking job is logged
// and does not take the process down.
func NewScheduler(ctx context.Context, p *pipeline.Pipeline, cleaner Cleaner, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("scheduler")
	cronLog := cron.PrintfLogger(zap.NewStdLog(logger))
	return &Scheduler{
		// Recover sits inside SkipIfStillRunning so a panic still releases
		// the running slot.
		Cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cronLog), cron.Recover(cronLog))),
		Pipeline: p,
		Cleaner:  cleaner,
		Ctx:      ctx,
		logger:   logger,
		cronLog:  cronLog,
		now:      time.Now,
	}
}

// RegisterAll registers the daily ingestion and, when cleanupCron is set,
// the periodic store deduplication.
func (s *Scheduler) RegisterAll(dailyCron, cleanupCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if cleanupCron == "" || s.Cleaner == nil {
		return nil
	}
	if _, err := s.Cron.AddFunc(cleanupCron, s.cleanupTask); err != nil {
		return fmt.Errorf("register cleanup task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunDailyNow executes the daily task immediately (for RUN_ON_START), with
// the same panic recovery as scheduled runs.
func (s *Scheduler) RunDailyNow() {
	cron.NewChain(cron.Recover(s.cronLog)).Then(cron.FuncJob(s.dailyTask)).Run()
}

func (s *Scheduler) dailyTask() {
	date := pipeline.LastBusinessDay(s.now())
	_, err := s.Pipeline.Run(s.Ctx, pipeline.Options{
		Date:    date,
		Upload:  true,
		Trigger: pipeline.TriggerCron,
	})
	if err != nil {
		s.logger.Warn("daily run interrupted", zap.Time("date", date), zap.Error(err))
	}
}

func (s *Scheduler) cleanupTask() {
	msg, err := s.Cleaner.Cleanup(s.Ctx)
	if err != nil {
		s.logger.Error("store cleanup failed", zap.Error(err))
		return
	}
	s.logger.Info("store cleanup done", zap.String("message", msg))
}
