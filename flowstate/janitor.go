package flowstate

import (
	"context"
	"time"

	"github.com/jrsteele09/go-pkce-client/metrics"
	"github.com/rs/zerolog/log"
)

// PurgeExpired removes expired flows once and records how many went.
func PurgeExpired(ctx context.Context, repo Repo, now time.Time) (int, error) {
	purged, err := repo.Purge(ctx, now)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		metrics.FlowsPurged.Add(float64(purged))
		log.Debug().Int("purged", purged).Msg("expired pending flows purged")
	}
	return purged, nil
}

// RunJanitor purges expired flows every interval until ctx is done.
// Abandoned flows would otherwise stay in the store until their state is presented.
func RunJanitor(ctx context.Context, repo Repo, interval time.Duration, options ...Option) {
	o := applyOptions(options)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := PurgeExpired(ctx, repo, o.now()); err != nil && ctx.Err() == nil {
				log.Err(err).Msg("failed to purge expired pending flows")
			}
		}
	}
}
