package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"teleimage/internal/analytics"
	"teleimage/internal/storage"
)

// DefaultSchedule fires every day at 21:00 UTC.
const DefaultSchedule = "0 21 * * *"

// ReportFunc builds and delivers one report.
type ReportFunc func(ctx context.Context) error

// Scheduler runs the daily report on a cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	schedule   string
	ctx        context.Context
	cancel     context.CancelFunc
	reportFunc ReportFunc
	log        zerolog.Logger
}

func New(schedule string, logger zerolog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		schedule: schedule,
		ctx:      ctx,
		cancel:   cancel,
		log:      logger.With().Str("component", "scheduler").Logger(),
	}
}

func (s *Scheduler) SetReportFunction(f ReportFunc) {
	s.reportFunc = f
}

// Start registers the report job and starts the cron loop. Without a report
// function it does nothing.
func (s *Scheduler) Start() error {
	if s.reportFunc == nil {
		s.log.Warn().Msg("report function not set, daily reports disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.log.Info().Str("schedule", s.schedule).Msg("daily report triggered")
		if err := s.reportFunc(s.ctx); err != nil {
			s.log.Error().Err(err).Msg("daily report failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("scheduler started")
	return nil
}

// Stop waits for a running job and cancels its context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}

// LogLoader reads the whole activity log.
type LogLoader interface {
	LoadAll(ctx context.Context) ([]storage.Record, error)
}

// TextSender delivers the report text.
type TextSender interface {
	SendPlainText(chatID int64, text string) error
}

// DailyReport returns a ReportFunc that summarizes today's (UTC) activity and
// sends it to chatID.
func DailyReport(logs LogLoader, sender TextSender, chatID int64, now func() time.Time) ReportFunc {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) error {
		records, err := logs.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("load log: %w", err)
		}
		stats := analytics.AnalyzeDailyLogs(records, now().UTC())
		if err := sender.SendPlainText(chatID, stats.GenerateReportSummary()); err != nil {
			return fmt.Errorf("send report: %w", err)
		}
		return nil
	}
}
