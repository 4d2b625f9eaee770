package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"velocirrus/internal/api"
	routes "velocirrus/internal/api/handlers"
	"velocirrus/internal/config"
	"velocirrus/internal/logging"
	"velocirrus/internal/observability"
	"velocirrus/internal/postgres"
	"velocirrus/internal/redis"
	"velocirrus/internal/service/classifier"
	"velocirrus/internal/service/position"
	"velocirrus/internal/service/refresh"
	"velocirrus/internal/service/zone"
	"velocirrus/internal/worker"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type connections struct {
	redis *goredis.Client
	db    *gorm.DB
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.TracingEnabled, "velocirrus", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	conns := initializeDatabaseAndCache(ctx, cfg, logger)
	defer closeConnections(conns, logger)

	metrics, err := observability.NewMetricsReporter(nil)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	refresher := initializeServices(cfg, conns, metrics, logger)

	workers := worker.StartAllWorkers(ctx, worker.Options{
		Refresher:       refresher,
		RefreshInterval: cfg.RefreshInterval,
		Request: func(now time.Time) refresh.Request {
			return refresh.Request{At: now, Credential: cfg.ZoneAPIKey, LivePositions: cfg.LivePositions}
		},
		History:         historyFlusher(refresher),
		HistoryInterval: cfg.HistoryInterval,
		Logger:          logger,
	})

	reportMemoryStats(ctx, logger)

	if err := runAPIServer(ctx, cfg, refresher, metrics, logger); err != nil {
		logger.Error("api server failed", slog.Any("error", err))
	}

	stop()
	workers.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn("failed to flush spans", slog.Any("error", err))
	}
}

func setupLogging(cfg config.Config) *slog.Logger {
	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	slog.SetDefault(logger)
	return logger
}

// initializeDatabaseAndCache connects the optional backends. Either one being
// unreachable only disables the feature that needs it.
func initializeDatabaseAndCache(ctx context.Context, cfg config.Config, logger *slog.Logger) connections {
	var conns connections

	if cfg.RedisUrl != "" {
		client, err := redis.Connect(ctx, cfg.RedisUrl)
		if err != nil {
			logger.Warn("redis unavailable; zone cache stays in process", slog.Any("error", err))
		} else {
			conns.redis = client
			logger.Info("redis connected")
		}
	}

	if cfg.DBUrl != "" {
		db, err := postgres.Connect(cfg.DBUrl)
		if err != nil {
			logger.Warn("postgres unavailable; refresh history disabled", slog.Any("error", err))
		} else {
			conns.db = db
			logger.Info("postgres connected")
		}
	}

	return conns
}

func initializeServices(cfg config.Config, conns connections, metrics *observability.MetricsReporter, logger *slog.Logger) *refresh.Refresher {
	var cache zone.Cache = zone.NewMemoryCache(64, cfg.ZoneCacheWindow)
	if conns.redis != nil {
		shared := zone.NewRedisCache(redis.NewStore(conns.redis), cfg.ZoneCacheWindow, logger)
		cache = zone.NewTieredCache(cache, shared)
	}

	zones := zone.NewProvider(zone.Options{
		ServiceURL:  cfg.ZoneServiceURL,
		Timeout:     cfg.ZoneTimeout,
		CacheWindow: cfg.ZoneCacheWindow,
		Cache:       cache,
		Logger:      logger,
	})

	var feed position.Feed
	if cfg.LivePositions {
		bbox := position.BBox{
			MinLat: cfg.BBoxMinLat,
			MaxLat: cfg.BBoxMaxLat,
			MinLon: cfg.BBoxMinLon,
			MaxLon: cfg.BBoxMaxLon,
		}
		feed = position.NewOpenSkyFeed(cfg.OpenSkyURL, cfg.OpenSkyUser, cfg.OpenSkyPass, bbox, cfg.PositionTimeout, nil)
	}
	positions := position.NewService(feed, cfg.MinAltitude, logger)

	var history refresh.HistoryStore
	if conns.db != nil {
		history = postgres.NewHistory(conns.db)
	}

	return refresh.New(refresh.Options{
		Zones:      zones,
		Positions:  positions,
		Classifier: classifier.New(classifier.WithMatcher(classifier.NewRTreeMatcher)),
		History:    history,
		Reporter:   observability.Multi(observability.NewLogReporter(logger), metrics),
		Metrics:    metrics,
		Logger:     logger,
	})
}

func historyFlusher(r *refresh.Refresher) worker.HistoryFlusher {
	if !r.HistoryEnabled() {
		return nil
	}
	return r
}

func runAPIServer(ctx context.Context, cfg config.Config, refresher *refresh.Refresher, metrics *observability.MetricsReporter, logger *slog.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// Never expose credentials or connection strings here
	info := map[string]string{
		"port":           cfg.Port,
		"zones":          zoneMode(cfg),
		"positions":      positionMode(cfg),
		"redis":          fmt.Sprintf("%t", cfg.RedisUrl != ""),
		"history":        fmt.Sprintf("%t", refresher.HistoryEnabled()),
		"refreshEvery":   cfg.RefreshInterval.String(),
		"zoneCacheEvery": cfg.ZoneCacheWindow.String(),
	}
	api.SetupRouter(r, info, &routes.RefreshHandlers{
		Refresher:     refresher,
		Credential:    cfg.ZoneAPIKey,
		LivePositions: cfg.LivePositions,
		Logger:        logger,
	}, metrics.Handler())

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", slog.String("addr", cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func zoneMode(cfg config.Config) string {
	if cfg.HasZoneCredential() {
		return "live"
	}
	return "fallback"
}

func positionMode(cfg config.Config) string {
	if cfg.LivePositions {
		return "live"
	}
	return "simulated"
}

func reportMemoryStats(ctx context.Context, logger *slog.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var m runtime.MemStats
				runtime.ReadMemStats(&m)
				logger.Debug("memory stats",
					slog.Uint64("alloc_mib", m.Alloc/1024/1024),
					slog.Uint64("sys_mib", m.Sys/1024/1024),
					slog.Uint64("num_gc", uint64(m.NumGC)),
				)
			}
		}
	}()
}

func closeConnections(conns connections, logger *slog.Logger) {
	if err := postgres.Close(conns.db); err != nil {
		logger.Error("error closing postgres connection", slog.Any("error", err))
	}

	if conns.redis != nil {
		if err := conns.redis.Close(); err != nil {
			logger.Error("error closing redis connection", slog.Any("error", err))
		}
	}

	logger.Info("connections closed")
}
