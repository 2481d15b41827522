// Package scheduler implements background task scheduling for WOLServ:
// daily pruning of old game results and periodic activity stats.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolserv-project/wolserv/internal/config"
	"github.com/wolserv-project/wolserv/internal/db"
	"github.com/wolserv-project/wolserv/internal/lobby"
	"github.com/wolserv-project/wolserv/internal/reactor"
)

// Scheduler manages periodic background tasks.
type Scheduler struct {
	cfg     *config.Config
	results *db.ResultsDatabase
	reactor *reactor.Reactor
	lobby   *lobby.FrontEnd
}

// NewScheduler creates a new task scheduler.
func NewScheduler(cfg *config.Config, results *db.ResultsDatabase, r *reactor.Reactor, lf *lobby.FrontEnd) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		results: results,
		reactor: r,
		lobby:   lf,
	}
}

// Start begins running all scheduled tasks, blocking until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	log.Info().Msg("scheduler started")

	// Result pruning - runs at the configured time daily
	if s.cfg.ApplicationData.Database.PruneEnabled {
		go s.runPruneLoop(ctx)
	}

	// Activity stats
	go s.runStatsLoop(ctx)

	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

// runPruneLoop runs the result pruner at the configured time.
func (s *Scheduler) runPruneLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		nextRun := s.calculateNextPruneTime()
		sleepDuration := time.Until(nextRun)

		if sleepDuration <= 0 {
			sleepDuration = 24 * time.Hour
		}

		log.Info().
			Time("next_run", nextRun).
			Dur("sleep", sleepDuration).
			Msg("result pruner scheduled")

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleepDuration):
			s.runPrune()
		}
	}
}

// runPrune deletes game results older than the retention window. Ladder
// standings are kept.
func (s *Scheduler) runPrune() {
	retentionDays := s.cfg.ApplicationData.Database.RetentionDays

	log.Info().
		Int("retention_days", retentionDays).
		Msg("running result pruner")

	deleted, err := s.results.PruneOlderThan(retentionDays)
	if err != nil {
		log.Warn().Err(err).Msg("result pruner failed")
		return
	}

	log.Info().
		Int64("deleted_results", deleted).
		Msg("result pruner completed")
}

// runStatsLoop logs lobby activity at the configured stats interval.
func (s *Scheduler) runStatsLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ApplicationData.Timers.Stats())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.collectStats(ctx)
		}
	}
}

// collectStats snapshots lobby activity on the reactor goroutine and logs it.
func (s *Scheduler) collectStats(ctx context.Context) {
	var connections, sessions, rooms int

	snapCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := s.reactor.Do(snapCtx, func() {
		connections = s.reactor.ConnCount()
		sessions = s.lobby.SessionCount()
		rooms = len(s.lobby.RoomsInfo())
	})
	if err != nil {
		return
	}

	resultCount := 0
	if count, err := s.results.ResultCount(); err == nil {
		resultCount = count
	}

	log.Info().
		Int("connections", connections).
		Int("sessions", sessions).
		Int("rooms", rooms).
		Int("stored_results", resultCount).
		Msg("activity stats")
}

// calculateNextPruneTime returns the next time the pruner should run.
func (s *Scheduler) calculateNextPruneTime() time.Time {
	pruneTime := s.cfg.ApplicationData.Database.PruneTime
	parts := strings.Split(pruneTime, ":")

	hour, minute := 4, 0 // Default: 4:00 AM
	if len(parts) >= 2 {
		fmt.Sscanf(parts[0], "%d", &hour)
		fmt.Sscanf(parts[1], "%d", &minute)
	}

	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())

	if next.Before(now) {
		next = next.Add(24 * time.Hour)
	}

	return next
}
