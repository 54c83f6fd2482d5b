package scheduler

import (
	"context"

	"github.com/fadedpez/scoreboard/internal/logging"
)

// Sweeper drops expired entries; correlation.Cache implements it
type Sweeper interface {
	Sweep() int
}

// SweepTask returns a task function that sweeps cache
func SweepTask(cache Sweeper, logger *logging.Logger) func(context.Context) error {
	if logger == nil {
		logger = logging.Discard
	}
	return func(ctx context.Context) error {
		if n := cache.Sweep(); n > 0 {
			logger.Debug("Swept %d expired message contexts", n)
		}
		return nil
	}
}
