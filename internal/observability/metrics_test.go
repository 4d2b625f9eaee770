package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsReporterCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetricsReporter(reg)
	if err != nil {
		t.Fatalf("NewMetricsReporter: %v", err)
	}

	ctx := context.Background()
	m.Report(ctx, Event{Kind: KindFallback, Component: ComponentZones})
	m.Report(ctx, Event{Kind: KindFallback, Component: ComponentZones})
	m.Report(ctx, Event{Kind: KindClassificationSummary, Component: ComponentClassifier, Aircraft: 100, HighRisk: 12})

	if got := testutil.ToFloat64(m.Events.WithLabelValues("fallback", "zones")); got != 2 {
		t.Fatalf("velocirrus_events_total{fallback,zones} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Aircraft); got != 100 {
		t.Fatalf("velocirrus_aircraft = %v, want 100", got)
	}
	if got := testutil.ToFloat64(m.HighRisk); got != 12 {
		t.Fatalf("velocirrus_high_risk_aircraft = %v, want 12", got)
	}
}

func TestNewMetricsReporterReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetricsReporter(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewMetricsReporter(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	first.Report(context.Background(), Event{Kind: KindGeometryWarning, Component: ComponentZones})
	if got := testutil.ToFloat64(second.Events.WithLabelValues("geometry_warning", "zones")); got != 1 {
		t.Fatalf("shared counter = %v, want 1", got)
	}
}

func TestMetricsHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetricsReporter(reg)
	if err != nil {
		t.Fatalf("NewMetricsReporter: %v", err)
	}
	m.ObserveRefresh("live", "simulated", 0.2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "velocirrus_refresh_duration_seconds") {
		t.Fatalf("missing refresh histogram in body")
	}
}
