// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/import/repository"
)

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron          *cron.Cron
	repo          repository.ImportRepository
	retentionDays int
	logger        *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(repo repository.ImportRepository, retentionDays int, logger *slog.Logger) *Scheduler {
	// Standard 5-field cron format, seconds disabled
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:          c,
		repo:          repo,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	// Terminal-job retention sweep: runs daily at 3:00 AM
	_, err := s.cron.AddFunc("0 3 * * *", s.sweepExpiredJobs)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the retention sweep (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.sweepExpiredJobs()
}

// sweepExpiredJobs removes completed, failed, and cancelled import jobs older
// than the retention window, along with their staged rows and errors.
func (s *Scheduler) sweepExpiredJobs() {
	if s.retentionDays <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	s.logger.Info("starting import job retention sweep",
		slog.Time("cutoff", cutoff),
	)

	deleted, err := s.repo.DeleteTerminalJobsBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("retention sweep failed", slog.Any("error", err))
		return
	}

	s.logger.Info("import job retention sweep finished",
		slog.Int64("deleted", deleted),
	)
}
