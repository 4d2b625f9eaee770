package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"velocirrus/internal/service/refresh"
)

// Refresher runs one refresh cycle
type Refresher interface {
	Refresh(ctx context.Context, req refresh.Request) (refresh.Snapshot, error)
}

// HistoryFlusher persists pending cycle summaries
type HistoryFlusher interface {
	FlushHistory(ctx context.Context) (int, error)
}

// Options configures the background workers. A zero interval disables the
// matching worker.
type Options struct {
	Refresher       Refresher
	RefreshInterval time.Duration
	Request         func(now time.Time) refresh.Request

	History         HistoryFlusher
	HistoryInterval time.Duration

	Logger *slog.Logger
}

// StartAllWorkers initializes and starts all background workers. They stop
// when ctx is done; the returned WaitGroup completes once they have exited.
func StartAllWorkers(ctx context.Context, opts Options) *sync.WaitGroup {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Logger.Info("starting workers")

	var wg sync.WaitGroup
	if opts.Refresher != nil && opts.RefreshInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runRefreshWorker(ctx, opts)
		}()
	}
	if opts.History != nil && opts.HistoryInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runHistoryWorker(ctx, opts)
		}()
	}
	return &wg
}
