package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/wonkyeggs/eggtrack/eggtrack/logger"
)

// StartScheduler runs one tick per interval until the context is cancelled.
// Ticks are serialized: a tick that overruns simply delays the next one.
func (c *Controller) StartScheduler(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		slog.Info("Snapshot controller scheduler started",
			slog.String("type", "tick"),
			slog.Duration("interval", interval))

		for {
			select {
			case <-ctx.Done():
				slog.Info("Snapshot controller scheduler stopped", slog.String("type", "tick"))
				return
			case <-ticker.C:
				start := time.Now()
				result, err := c.Tick(ctx)
				reason := ""
				if result != nil && result.Decision != nil {
					reason = result.Decision.Reason
				}
				logger.LogTick(reason, time.Since(start), err)
			}
		}
	}()
}
