package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dtroode/cutout-server/internal/logger"
	"github.com/dtroode/cutout-server/internal/model"
)

// Sweeper refunds reservations left pending by a crashed or stuck request.
type Sweeper struct {
	ledger     model.Ledger
	interval   time.Duration
	staleAfter time.Duration
	observer   JobObserver
	logger     *logger.Logger
	now        func() time.Time
}

func NewSweeper(ledger model.Ledger, interval, staleAfter time.Duration, observer JobObserver, logger *logger.Logger) *Sweeper {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Sweeper{
		ledger:     ledger,
		interval:   interval,
		staleAfter: staleAfter,
		observer:   observer,
		logger:     logger,
		now:        time.Now,
	}
}

// Sweep releases every reservation older than staleAfter.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	released, err := s.ledger.ReleaseStale(ctx, s.now().Add(-s.staleAfter))
	if err != nil {
		return 0, fmt.Errorf("failed to release stale reservations: %w", err)
	}
	if released > 0 {
		s.observer.CreditsRefunded(released)
		s.logger.Warn("Sweeper: released stale reservations",
			"count", released)
	}
	return released, nil
}

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("Sweeper: sweep failed",
					"error", err.Error())
			}
		}
	}
}
