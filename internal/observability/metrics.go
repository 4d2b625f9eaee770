package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsReporter turns pipeline events into Prometheus metrics.
type MetricsReporter struct {
	gatherer prometheus.Gatherer

	Events           *prometheus.CounterVec
	RefreshDurations *prometheus.HistogramVec
	Aircraft         prometheus.Gauge
	HighRisk         prometheus.Gauge
}

// NewMetricsReporter registers the metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewMetricsReporter(reg prometheus.Registerer) (*MetricsReporter, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	events, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "velocirrus_events_total",
		Help: "Pipeline status events, labeled by kind and component.",
	}, []string{"kind", "component"}), "velocirrus_events_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "velocirrus_refresh_duration_seconds",
		Help:    "Refresh cycle latency in seconds, labeled by zone and position source.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	}, []string{"zones", "positions"}), "velocirrus_refresh_duration_seconds")
	if err != nil {
		return nil, err
	}

	aircraft, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "velocirrus_aircraft",
		Help: "Positions classified in the latest refresh.",
	}), "velocirrus_aircraft")
	if err != nil {
		return nil, err
	}
	highRisk, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "velocirrus_high_risk_aircraft",
		Help: "Positions classified as high risk in the latest refresh.",
	}), "velocirrus_high_risk_aircraft")
	if err != nil {
		return nil, err
	}

	return &MetricsReporter{
		gatherer:         gatherer,
		Events:           events,
		RefreshDurations: durations,
		Aircraft:         aircraft,
		HighRisk:         highRisk,
	}, nil
}

func (m *MetricsReporter) Report(_ context.Context, e Event) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(string(e.Kind), e.Component).Inc()
	if e.Kind == KindClassificationSummary {
		m.Aircraft.Set(float64(e.Aircraft))
		m.HighRisk.Set(float64(e.HighRisk))
	}
}

// ObserveRefresh records the duration of a finished refresh cycle
func (m *MetricsReporter) ObserveRefresh(zones, positions string, seconds float64) {
	if m == nil {
		return
	}
	m.RefreshDurations.WithLabelValues(zones, positions).Observe(seconds)
}

// Handler exposes a ready-to-use /metrics handler.
func (m *MetricsReporter) Handler() http.Handler {
	gatherer := m.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
