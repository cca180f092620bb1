package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/concierge/internal/auth/store"
)

// HousekeepingService periodically nulls out stale recovery and
// password-reset codes so they don't linger in the accounts table. A pair
// is only cleared once its request rate-limit window has passed as well as
// its validity, because the stored expiry is also the issuance record the
// rate limit reads.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// This is non-blocking and should be called after the database is ready.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx := context.Background()

	// issued = expires - TTL, so a pair whose expiry predates this cutoff
	// was issued more than a full request interval ago and can no longer
	// feed the rate limit. Expired-but-younger pairs stay; verification
	// rejects them anyway.
	cutoff := time.Now().UTC().Add(recoveryCodeTTL - recoveryRequestInterval)

	cleared, err := s.Store.Accounts().ClearExpiredCodes(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to clear expired codes", "error", err)
		return
	}
	if cleared > 0 {
		s.Logger.Info("housekeeping cleared expired codes", "accounts", cleared)
	}
}
