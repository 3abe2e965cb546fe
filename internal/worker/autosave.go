package worker

// autosave.go
// Background goroutine that periodically snapshots the active closing
// session into the draft store, so an interrupted close can be resumed.
// Saves are fire-and-forget: a failure is logged and retried on the next
// tick, never surfaced to the user as a hard error.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/draft"
	"github.com/johnkamauwamunga/energy-erp-sub002/internal/session"
)

const defaultAutosaveInterval = 30 * time.Second

// AutosaveConfig holds the dependencies for the autosave goroutine.
type AutosaveConfig struct {
	Session  *session.Session
	Store    draft.Store
	Interval time.Duration
}

// StartAutosave launches a goroutine that ticks on the configured
// interval and saves a snapshot of the session. It respects the context
// for shutdown and writes one final snapshot on the way out so the last
// edits before closing the workflow are not lost.
func StartAutosave(ctx context.Context, cfg AutosaveConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultAutosaveInterval
	}

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		key := draft.Key(cfg.Session.StationID, cfg.Session.ShiftID)
		log.Info().Str("key", key).Dur("interval", cfg.Interval).Msg("autosave: started")

		for {
			select {
			case <-ctx.Done():
				saveOnce(cfg, key)
				log.Info().Str("key", key).Msg("autosave: shutting down")
				return
			case <-ticker.C:
				saveOnce(cfg, key)
			}
		}
	}()
}

func saveOnce(cfg AutosaveConfig, key string) {
	// Detached context: the tick must not inherit a cancelled deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cfg.Store.Save(ctx, key, cfg.Session.Snapshot()); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("autosave: save failed, will retry next tick")
	}
}
