package worker

import (
	"context"
	"log/slog"
	"time"

	"velocirrus/internal/service/refresh"
)

// runRefreshWorker refreshes on every tick. Ticks that arrive while a cycle is
// still running are dropped by the ticker.
func runRefreshWorker(ctx context.Context, opts Options) {
	request := opts.Request
	if request == nil {
		request = func(now time.Time) refresh.Request {
			return refresh.Request{At: now}
		}
	}

	ticker := time.NewTicker(opts.RefreshInterval)
	defer ticker.Stop()

	opts.Logger.Info("refresh worker started", slog.Duration("interval", opts.RefreshInterval))
	for {
		select {
		case <-ctx.Done():
			opts.Logger.Info("refresh worker stopped")
			return
		case now := <-ticker.C:
			if _, err := opts.Refresher.Refresh(ctx, request(now.UTC())); err != nil {
				opts.Logger.Warn("scheduled refresh failed", slog.Any("error", err))
			}
		}
	}
}
