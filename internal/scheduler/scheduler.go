// Package scheduler drives time-based auction lifecycle transitions.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/Tanh1603/auction-hub-sub000/internal/service"
)

// Scheduler periodically applies the auction clock: opening scheduled
// auctions and closing live ones.
type Scheduler struct {
	auctions *service.AuctionService
	interval time.Duration
}

// New constructs a Scheduler.
func New(auctions *service.AuctionService, interval time.Duration) *Scheduler {
	return &Scheduler{auctions: auctions, interval: interval}
}

// Run ticks until ctx is cancelled. An immediate pass runs on startup so
// auctions overdue after a restart are not left waiting a full interval.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("scheduler started", "interval", s.interval)
	s.auctions.RunClock(ctx, time.Now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case now := <-ticker.C:
			s.auctions.RunClock(ctx, now)
		}
	}
}
