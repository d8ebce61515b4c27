package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_visa/internal/utils"
)

// CampaignExpirer deactivates campaigns past their end date.
type CampaignExpirer interface {
	ExpireCampaigns(ctx context.Context) (int64, error)
}

// CampaignExpiryWorker periodically deactivates expired campaigns.
type CampaignExpiryWorker struct {
	campaigns CampaignExpirer
	interval  time.Duration
}

// NewCampaignExpiryWorker constructs a CampaignExpiryWorker.
func NewCampaignExpiryWorker(campaigns CampaignExpirer, interval time.Duration) *CampaignExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CampaignExpiryWorker{campaigns: campaigns, interval: interval}
}

// Start begins the sweep loop and listens for context cancellation.
func (w *CampaignExpiryWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting campaign expiry worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Campaign expiry worker stopped")
			return
		}
	}
}

func (w *CampaignExpiryWorker) run(ctx context.Context) {
	n, err := w.campaigns.ExpireCampaigns(ctx)
	switch {
	case errors.Is(err, utils.ErrLockBusy):
		// A dashboard edit holds the lock; the next tick retries.
		log.Debug().Msg("Campaign expiry skipped, mutation in progress")
	case err != nil:
		log.Error().Err(err).Msg("Failed to expire campaigns")
	case n > 0:
		log.Info().Int64("deactivated", n).Msg("Expired campaigns deactivated")
	}
}
