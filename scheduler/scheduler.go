// Package scheduler runs periodic reconciliation jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Job is idempotent; a failed run is simply repeated at the next tick
type Job func(ctx context.Context) error

// Every runs fn each interval until ctx is done. The first run happens one
// interval after the call. Errors are logged and never stop the loop.
func Every(ctx context.Context, interval time.Duration, name string, fn Job, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := logger.With().Str("job", name).Logger()
	log.Info().Dur("interval", interval).Msg("job scheduled")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("job stopped")
			return
		case <-ticker.C:
			start := time.Now()
			if err := fn(ctx); err != nil {
				log.Error().Err(err).Msg("scheduled job failed")
				continue
			}
			log.Debug().Dur("took", time.Since(start)).Msg("scheduled job completed")
		}
	}
}
