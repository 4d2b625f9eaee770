package zone

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"velocirrus/internal/logging"
	"velocirrus/internal/model"
	"velocirrus/internal/observability"
	"velocirrus/internal/redis"

	"github.com/alicebob/miniredis/v2"
)

const liveCollection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "ISSR North", "severity": "warning"},
      "geometry": {"type": "Polygon", "coordinates": [
        [[-40, 45], [-30, 45], [-30, 50], [-40, 50], [-40, 45]],
        [[-36, 46], [-34, 46], [-34, 48], [-36, 48], [-36, 46]]
      ]}
    },
    {
      "type": "Feature",
      "properties": {"name": "Sliver"},
      "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 1], [0, 0]]]}
    },
    {
      "type": "Feature",
      "properties": {"name": "Marker"},
      "geometry": {"type": "Point", "coordinates": [-20, 50]}
    }
  ]
}`

var testTime = time.Date(2025, time.March, 3, 12, 1, 0, 0, time.UTC)

type fakeService struct {
	hits   atomic.Int32
	status int
	body   string
	delay  time.Duration
	query  atomic.Value
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	f.query.Store(r.URL.Query())
	if f.delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(f.delay):
		}
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write([]byte(f.body))
}

func newProvider(t *testing.T, svc *fakeService, cache Cache) *Provider {
	t.Helper()
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)
	return NewProvider(Options{
		ServiceURL:  srv.URL + "/v1/regions",
		Timeout:     100 * time.Millisecond,
		CacheWindow: 5 * time.Minute,
		Cache:       cache,
		Logger:      logging.Discard(),
	})
}

func TestGetZonesWithoutCredentialUsesFallback(t *testing.T) {
	svc := &fakeService{body: liveCollection}
	p := newProvider(t, svc, nil)
	rec := observability.NewRecorder()

	res := p.GetZones(context.Background(), "", testTime, rec)

	if res.Source != model.SourceSimulated {
		t.Fatalf("Source = %s, want simulated", res.Source)
	}
	if len(res.Zones) != 2 {
		t.Fatalf("len(Zones) = %d, want 2", len(res.Zones))
	}
	if svc.hits.Load() != 0 {
		t.Fatalf("remote service called %d times without credential", svc.hits.Load())
	}
	if got := rec.Count(observability.KindFallback); got != 1 {
		t.Fatalf("fallback events = %d, want 1", got)
	}
	if got := rec.Count(observability.KindZoneFetchFailure); got != 0 {
		t.Fatalf("failure events = %d, want 0", got)
	}
}

func TestGetZonesTimeoutFallsBackOnce(t *testing.T) {
	svc := &fakeService{body: liveCollection, delay: 2 * time.Second}
	p := newProvider(t, svc, nil)
	rec := observability.NewRecorder()

	start := time.Now()
	res := p.GetZones(context.Background(), "secret", testTime, rec)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("GetZones took %v, timeout not enforced", elapsed)
	}

	if res.Source != model.SourceSimulated {
		t.Fatalf("Source = %s, want simulated", res.Source)
	}
	if len(res.Zones) != 2 ||
		res.Zones[0].Name != "Zone Alpha (High Humidity)" ||
		res.Zones[1].Name != "Zone Beta (Ice Supersaturated)" {
		t.Fatalf("zones = %+v, want the two fallback zones", res.Zones)
	}
	if got := rec.Count(observability.KindFallback); got != 1 {
		t.Fatalf("fallback events = %d, want 1", got)
	}
	if got := rec.Count(observability.KindZoneFetchFailure); got != 1 {
		t.Fatalf("failure events = %d, want 1", got)
	}
}

func TestGetZonesLiveParsesOuterRings(t *testing.T) {
	svc := &fakeService{body: liveCollection}
	p := newProvider(t, svc, nil)
	rec := observability.NewRecorder()

	res := p.GetZones(context.Background(), "secret", testTime, rec)

	if res.Source != model.SourceLive {
		t.Fatalf("Source = %s, want live; events = %v", res.Source, rec.Messages())
	}
	if len(res.Zones) != 1 {
		t.Fatalf("len(Zones) = %d, want 1", len(res.Zones))
	}
	z := res.Zones[0]
	if z.Name != "ISSR North" || z.Severity != model.SeverityWarning || z.Color != model.ColorWarning {
		t.Fatalf("zone = %+v", z)
	}
	// the hole is flattened away, so its interior is inside the zone
	if !z.Contains(-35, 47) {
		t.Fatalf("point inside dropped hole should be contained")
	}
	// hole dropped, sliver rejected, point skipped
	if got := rec.Count(observability.KindGeometryWarning); got != 3 {
		t.Fatalf("geometry warnings = %d, want 3: %v", got, rec.Messages())
	}

	q := svc.query.Load().(url.Values)
	if q.Get("key") != "secret" || q.Get("time") != "2025-03-03T12:01:00Z" {
		t.Fatalf("query = %v", q)
	}
}

func TestGetZonesCachesWithinWindow(t *testing.T) {
	svc := &fakeService{body: liveCollection}
	p := newProvider(t, svc, nil)
	ctx := context.Background()

	first := p.GetZones(ctx, "secret", testTime, nil)
	second := p.GetZones(ctx, "secret", testTime.Add(2*time.Minute), nil)

	if svc.hits.Load() != 1 {
		t.Fatalf("remote hits = %d, want 1", svc.hits.Load())
	}
	if first.Source != model.SourceLive || second.Source != model.SourceCached {
		t.Fatalf("sources = %s, %s", first.Source, second.Source)
	}
	if len(second.Zones) != len(first.Zones) || second.Zones[0].Name != first.Zones[0].Name {
		t.Fatalf("cached zones differ: %+v", second.Zones)
	}

	// next bucket
	p.GetZones(ctx, "secret", testTime.Add(6*time.Minute), nil)
	if svc.hits.Load() != 2 {
		t.Fatalf("remote hits = %d, want 2 after window change", svc.hits.Load())
	}
}

func TestGetZonesDoesNotCacheFailures(t *testing.T) {
	svc := &fakeService{status: http.StatusServiceUnavailable}
	p := newProvider(t, svc, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		rec := observability.NewRecorder()
		res := p.GetZones(ctx, "secret", testTime, rec)
		if res.Source != model.SourceSimulated {
			t.Fatalf("call %d: Source = %s", i, res.Source)
		}
		if rec.Count(observability.KindZoneFetchFailure) != 1 {
			t.Fatalf("call %d: failure not reported: %v", i, rec.Messages())
		}
	}
	if svc.hits.Load() != 2 {
		t.Fatalf("remote hits = %d, want 2", svc.hits.Load())
	}
}

func TestGetZonesEmptyCollectionFallsBack(t *testing.T) {
	svc := &fakeService{body: `{"type":"FeatureCollection","features":[]}`}
	p := newProvider(t, svc, nil)
	rec := observability.NewRecorder()

	res := p.GetZones(context.Background(), "secret", testTime, rec)
	if res.Source != model.SourceSimulated || len(res.Zones) != 2 {
		t.Fatalf("res = %+v", res)
	}
	if rec.Count(observability.KindZoneFetchFailure) != 1 {
		t.Fatalf("events = %v", rec.Messages())
	}
}

func TestGetZonesMalformedBodyFallsBack(t *testing.T) {
	svc := &fakeService{body: `{"type": "FeatureCollection", "features": [`}
	p := newProvider(t, svc, nil)

	res := p.GetZones(context.Background(), "secret", testTime, nil)
	if res.Source != model.SourceSimulated {
		t.Fatalf("Source = %s, want simulated", res.Source)
	}
}

func TestGetZonesSharedRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.Connect(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()
	shared := NewRedisCache(redis.NewStore(client), 5*time.Minute, logging.Discard())

	svc := &fakeService{body: liveCollection}
	a := newProvider(t, svc, NewTieredCache(NewMemoryCache(8, 5*time.Minute), shared))
	b := newProvider(t, svc, NewTieredCache(NewMemoryCache(8, 5*time.Minute), shared))

	ctx := context.Background()
	if res := a.GetZones(ctx, "secret", testTime, nil); res.Source != model.SourceLive {
		t.Fatalf("a: Source = %s", res.Source)
	}
	res := b.GetZones(ctx, "secret", testTime, nil)
	if res.Source != model.SourceCached {
		t.Fatalf("b: Source = %s, want cached", res.Source)
	}
	if svc.hits.Load() != 1 {
		t.Fatalf("remote hits = %d, want 1", svc.hits.Load())
	}
	if len(res.Zones) != 1 || res.Zones[0].Name != "ISSR North" || !res.Zones[0].Contains(-35, 47) {
		t.Fatalf("zones from redis = %+v", res.Zones)
	}
}

func TestCacheKeyBuckets(t *testing.T) {
	w := 5 * time.Minute
	a := CacheKey(true, testTime, w)
	b := CacheKey(true, testTime.Add(3*time.Minute), w)
	c := CacheKey(true, testTime.Add(4*time.Minute), w)
	d := CacheKey(false, testTime, w)

	if a != b {
		t.Errorf("same bucket produced %q and %q", a, b)
	}
	if a == c {
		t.Errorf("different buckets share key %q", a)
	}
	if a == d {
		t.Errorf("credential presence not part of key: %q", a)
	}
}

func TestGetZonesNonStringPropertiesUseDefaults(t *testing.T) {
	svc := &fakeService{body: `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "properties": {"name": 42, "severity": 1},
    "geometry": {"type": "Polygon", "coordinates": [[[-40, 45], [-30, 45], [-30, 50], [-40, 50], [-40, 45]]]}
  }]
}`}
	p := newProvider(t, svc, nil)
	rec := observability.NewRecorder()

	res := p.GetZones(context.Background(), "secret", testTime, rec)

	if res.Source != model.SourceLive {
		t.Fatalf("Source = %s, want live", res.Source)
	}
	if len(res.Zones) != 1 {
		t.Fatalf("len(Zones) = %d, want 1", len(res.Zones))
	}
	if z := res.Zones[0]; z.Name != "Zone 1" || z.Severity != model.SeverityDanger {
		t.Fatalf("zone = %q/%s, want default name and danger", z.Name, z.Severity)
	}
	if got := rec.Count(observability.KindGeometryWarning); got != 2 {
		t.Fatalf("geometry warnings = %d, want 2", got)
	}
	if got := rec.Count(observability.KindFallback); got != 0 {
		t.Fatalf("fallback events = %d, want 0", got)
	}
}
