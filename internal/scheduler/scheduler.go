// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs of the site.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/acm-mitb/acm-site/internal/model"
)

// jobTimeout bounds a single job run.
const jobTimeout = 5 * time.Minute

// Job is a named function run on a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Scheduler runs jobs on their cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a scheduler with no jobs.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Add registers job. It fails when the schedule does not parse.
func (s *Scheduler) Add(job Job) error {
	_, err := s.cron.AddFunc(job.Schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("scheduling %s: %w", job.Name, err)
	}
	return nil
}

// Start runs the registered jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", job.Name, "error", err, "category", model.LogCategorySystem)
		return
	}
	s.logger.Debug("scheduled job finished", "job", job.Name, "duration", time.Since(start))
}
