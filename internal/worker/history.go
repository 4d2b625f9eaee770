package worker

import (
	"context"
	"log/slog"
	"time"
)

// runHistoryWorker periodically flushes pending summaries and performs a
// final flush on shutdown
func runHistoryWorker(ctx context.Context, opts Options) {
	ticker := time.NewTicker(opts.HistoryInterval)
	defer ticker.Stop()

	opts.Logger.Info("history worker started", slog.Duration("interval", opts.HistoryInterval))
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(flushCtx, opts)
			cancel()
			opts.Logger.Info("history worker stopped")
			return
		case <-ticker.C:
			flush(ctx, opts)
		}
	}
}

func flush(ctx context.Context, opts Options) {
	n, err := opts.History.FlushHistory(ctx)
	if err != nil {
		opts.Logger.Error("failed to store refresh history", slog.Any("error", err))
		return
	}
	if n > 0 {
		opts.Logger.Debug("refresh history stored", slog.Int("rows", n))
	}
}
