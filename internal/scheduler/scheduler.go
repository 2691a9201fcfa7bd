// Package scheduler drives the periodic housekeeping: once per day, at or
// after the configured hour, it dispatches the reminder digests and
// cancels pending bookings whose span elapsed undecided.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kschlt/btznstn-sub003/internal/service"
)

type Scheduler struct {
	Coord    *service.Coordinator
	Clock    service.Clock
	Interval time.Duration
	RunHour  int // local hour after which the daily run fires
	Log      zerolog.Logger

	lastRun time.Time // civil date of the last completed run
}

func (s *Scheduler) Run(ctx context.Context) error {
	log := s.Log.With().Str("component", "scheduler").Logger()

	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately so a restart never skips the day
	s.tick(ctx, log)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.tick(ctx, log)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, log zerolog.Logger) {
	now := s.Clock.Now()
	today := s.Clock.Today()
	if now.Hour() < s.RunHour || !s.lastRun.Before(today) {
		return
	}

	sent, err := s.Coord.DispatchDigests(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("digest dispatch failed")
		return
	}
	canceled, err := s.Coord.AutoCleanup(ctx)
	if err != nil {
		log.Error().Err(err).Msg("auto-cleanup failed")
		return
	}

	s.lastRun = today
	log.Info().
		Time("date", today).
		Int("digests", sent).
		Int("auto_canceled", canceled).
		Msg("daily run complete")
}
