// Package sweeper periodically purges expired session records.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/kodbank/kodbank/internal/logging"
	"github.com/kodbank/kodbank/internal/server/repositories/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
)

// Sweeper deletes session records whose expiry has passed on a cron schedule.
type Sweeper struct {
	schedule string
	sessions sessions.Repository
	logger   logging.Logger
	swept    prometheus.Counter
	now      func() time.Time
}

// New validates schedule (standard cron syntax or descriptors such as
// "@every 10m") and returns a sweeper. swept may be nil.
func New(schedule string, repo sessions.Repository, l logging.Logger, swept prometheus.Counter) (*Sweeper, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return &Sweeper{
		schedule: schedule,
		sessions: repo,
		logger:   l.With("component", "sweeper"),
		swept:    swept,
		now:      time.Now,
	}, nil
}

// SweepOnce removes every record expired as of now.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if s.swept != nil {
		s.swept.Add(float64(n))
	}
	return n, nil
}

// Run sweeps on schedule until ctx is cancelled and waits for a running
// sweep to finish before returning.
func (s *Sweeper) Run(ctx context.Context) error {
	c := cron.New()

	_, err := c.AddFunc(s.schedule, func() {
		n, err := s.SweepOnce(ctx)
		if err != nil {
			s.logger.Error(ctx, "session sweep failed", "error", err)
			return
		}
		if n > 0 {
			s.logger.Info(ctx, "expired sessions removed", "count", n)
		}
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Starting session sweeper", "schedule", s.schedule)
	c.Start()

	<-ctx.Done()

	s.logger.Info(ctx, "Stopping session sweeper...")
	<-c.Stop().Done()

	return nil
}
