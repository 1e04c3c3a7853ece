package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"interpreter-booking/internal/infra/metrics"
	"interpreter-booking/internal/usecase"
)

// SweepWorker periodically times out stale pending bookings and sends
// session-start reminders via the sweep use case.
type SweepWorker struct {
	interval     time.Duration
	remindWindow time.Duration
	sweep        usecase.SweepUseCase
	log          *zerolog.Logger
}

func NewSweepWorker(interval, remindWindow time.Duration, sweep usecase.SweepUseCase, logger *zerolog.Logger) *SweepWorker {
	compLog := logger.With().Str("component", "SweepWorker").Logger()
	return &SweepWorker{
		interval:     interval,
		remindWindow: remindWindow,
		sweep:        sweep,
		log:          &compLog,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting sweep worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once on startup, then on every tick.
	w.runSweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping sweep worker")
			return ctx.Err()
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

func (w *SweepWorker) runSweep(ctx context.Context) {
	expired, err := w.sweep.ExpireOverdue(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("expiry sweep error")
	}
	if expired > 0 {
		metrics.AddJobsExpired(expired)
		w.log.Info().Int("count", expired).Msg("pending bookings timed out")
	}

	reminded, err := w.sweep.RemindSessionStart(ctx, w.remindWindow)
	if err != nil {
		w.log.Error().Err(err).Msg("reminder sweep error")
	}
	if reminded > 0 {
		w.log.Info().Int("count", reminded).Msg("session reminders sent")
	}
}
