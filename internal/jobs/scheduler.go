// Package jobs runs the out-of-band maintenance work: the idempotent sweep
// that deletes refresh-token rows whose expiry has passed. The sweep never
// runs on the request path and is safe alongside live traffic.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// TokenCleaner is the slice of the token store the scheduler needs.
type TokenCleaner interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	cron   *cron.Cron
	tokens TokenCleaner
	log    zerolog.Logger
}

func NewScheduler(tokens TokenCleaner, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		tokens: tokens,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 * * * *", s.sweepExpiredTokens); err != nil { // hourly
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for a running sweep to finish, up to a bounded grace period.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) sweepExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := s.tokens.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("token sweep failed")
		return
	}
	if count > 0 {
		s.log.Info().Int64("deleted", count).Msg("expired refresh tokens removed")
	}
}
