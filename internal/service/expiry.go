package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultExpirySweepInterval = 5 * time.Minute

// ExpirySweeper persists the expired status of rentals whose period has
// elapsed. Read paths already compute effective status from expires_at, so
// the sweep only keeps stored rows honest for reporting and the capacity
// count.
type ExpirySweeper struct {
	store    RentalStore
	interval time.Duration
	logger   *zap.Logger
}

// NewExpirySweeper creates an expiry sweeper
func NewExpirySweeper(store RentalStore, interval time.Duration, logger *zap.Logger) *ExpirySweeper {
	if interval <= 0 {
		interval = defaultExpirySweepInterval
	}
	return &ExpirySweeper{store: store, interval: interval, logger: logger}
}

// Run sweeps on the configured interval until the context is cancelled.
// An immediate sweep runs at startup to catch rentals that expired while
// the service was down.
func (e *ExpirySweeper) Run(ctx context.Context) {
	e.logger.Info("Starting rental expiry sweeper", zap.Duration("interval", e.interval))

	e.sweep(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Rental expiry sweeper stopped")
			return
		case <-ticker.C:
			e.sweep(ctx)
		}
	}
}

func (e *ExpirySweeper) sweep(ctx context.Context) {
	expired, err := e.store.ExpireRentals(ctx, time.Now().UTC())
	if err != nil {
		e.logger.Error("Failed to expire rentals", zap.Error(err))
		return
	}
	if expired > 0 {
		e.logger.Info("Marked rentals as expired", zap.Int64("count", expired))
	}
}
