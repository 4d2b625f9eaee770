package zone

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"velocirrus/internal/config"
	"velocirrus/internal/model"
	"velocirrus/internal/observability"
)

// Options configures a Provider
type Options struct {
	ServiceURL  string
	Timeout     time.Duration
	CacheWindow time.Duration
	HTTPClient  *http.Client
	Cache       Cache // defaults to an in-process LRU
	Logger      *slog.Logger
}

// Provider produces the zone set for a refresh cycle, from the remote zone
// service when possible and from FallbackZones otherwise
type Provider struct {
	client *Client
	cache  Cache
	window time.Duration
	log    *slog.Logger
}

// Result is the zone set of one cycle and where it came from
type Result struct {
	Zones  []model.Zone
	Source model.DataSource
}

func NewProvider(opts Options) *Provider {
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultRemoteTimeout
	}
	if opts.CacheWindow <= 0 {
		opts.CacheWindow = config.DefaultZoneCacheWindow
	}
	if opts.Cache == nil {
		opts.Cache = NewMemoryCache(64, opts.CacheWindow)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Provider{
		client: NewClient(opts.ServiceURL, opts.Timeout, opts.HTTPClient),
		cache:  opts.Cache,
		window: opts.CacheWindow,
		log:    opts.Logger,
	}
}

// GetZones returns a non-empty zone set for the given instant. Remote
// failures are reported and replaced by the fallback set; they never reach
// the caller.
func (p *Provider) GetZones(ctx context.Context, credential string, at time.Time, rep observability.Reporter) Result {
	if rep == nil {
		rep = observability.Noop()
	}

	key := CacheKey(credential != "", at, p.window)
	if e, ok := p.cache.Get(ctx, key); ok && len(e.Zones) > 0 {
		p.log.Debug("zone cache hit", slog.String("key", key), slog.String("source", string(e.Source)))
		if e.Source == model.SourceLive {
			return Result{Zones: e.Zones, Source: model.SourceCached}
		}
		return p.fallback(ctx, rep, "no zone credential configured; using fallback zones")
	}

	if credential == "" {
		res := p.fallback(ctx, rep, "no zone credential configured; using fallback zones")
		p.cache.Set(ctx, key, CacheEntry{Zones: res.Zones, Source: model.SourceSimulated})
		return res
	}

	zones, err := p.fetch(ctx, credential, at, rep)
	if err != nil {
		rep.Report(ctx, observability.Event{
			Kind:      observability.KindZoneFetchFailure,
			Component: observability.ComponentZones,
			Message:   err.Error(),
		})
		return p.fallback(ctx, rep, "zone service unavailable; using fallback zones")
	}

	p.cache.Set(ctx, key, CacheEntry{Zones: zones, Source: model.SourceLive})
	p.log.Info("live zones loaded", slog.Int("count", len(zones)), slog.Time("at", at))
	return Result{Zones: zones, Source: model.SourceLive}
}

func (p *Provider) fetch(ctx context.Context, credential string, at time.Time, rep observability.Reporter) ([]model.Zone, error) {
	fc, err := p.client.Fetch(ctx, credential, at)
	if err != nil {
		return nil, err
	}

	zones := ZonesFromFeatures(ctx, fc, rep)
	if len(zones) == 0 {
		return nil, fmt.Errorf("%w: response held %d features and no usable zones", ErrZoneFetch, len(fc.Features))
	}
	return zones, nil
}

func (p *Provider) fallback(ctx context.Context, rep observability.Reporter, reason string) Result {
	rep.Report(ctx, observability.Event{
		Kind:      observability.KindFallback,
		Component: observability.ComponentZones,
		Message:   reason,
	})
	return Result{Zones: FallbackZones(), Source: model.SourceSimulated}
}
