// Package jobs runs the server's scheduled background maintenance.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/clinicvoice/server/internal/stores/clinic"
)

// Scheduler owns the cron instance for background maintenance jobs
type Scheduler struct {
	store *clinic.Store
	cron  *cron.Cron
}

// NewScheduler creates a scheduler with the denylist purge job registered.
// Expired revoked tokens are swept hourly; a token past its expiry is
// rejected by signature verification anyway, so the sweep only reclaims
// space.
func NewScheduler(store *clinic.Store) (*Scheduler, error) {
	s := &Scheduler{
		store: store,
		cron:  cron.New(),
	}

	if _, err := s.cron.AddFunc("@hourly", s.purgeRevokedTokens); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running the scheduled jobs
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) purgeRevokedTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := s.store.PurgeExpiredRevokedTokens(ctx, time.Now())
	if err != nil {
		log.Printf("[JOBS]: failed to purge revoked tokens: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("[JOBS]: purged %d expired revoked tokens", purged)
	}
}
