package observability

import (
	"context"
	"log/slog"
	"sync"
)

// EventKind classifies a status event
type EventKind string

const (
	KindZoneFetchFailure      EventKind = "zone_fetch_failure"
	KindPositionFetchFailure  EventKind = "position_fetch_failure"
	KindFallback              EventKind = "fallback"
	KindGeometryWarning       EventKind = "geometry_warning"
	KindClassificationSummary EventKind = "classification_summary"
)

// Components that emit events.
const (
	ComponentZones      = "zones"
	ComponentPositions  = "positions"
	ComponentClassifier = "classifier"
)

// Event is a human readable status message plus enough structure to drive
// metrics. Aircraft and HighRisk are only set on classification summaries.
type Event struct {
	Kind      EventKind `json:"kind"`
	Component string    `json:"component"`
	Message   string    `json:"message"`
	Aircraft  int       `json:"-"`
	HighRisk  int       `json:"-"`
}

// Reporter receives status and error events from the refresh pipeline.
type Reporter interface {
	Report(ctx context.Context, e Event)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ctx context.Context, e Event)

func (f ReporterFunc) Report(ctx context.Context, e Event) { f(ctx, e) }

// Noop returns a reporter that drops all events.
func Noop() Reporter { return ReporterFunc(func(context.Context, Event) {}) }

// Multi fans an event out to every non-nil reporter in order.
func Multi(reporters ...Reporter) Reporter {
	return ReporterFunc(func(ctx context.Context, e Event) {
		for _, r := range reporters {
			if r != nil {
				r.Report(ctx, e)
			}
		}
	})
}

// LogReporter writes events to a slog logger.
type LogReporter struct {
	log *slog.Logger
}

func NewLogReporter(log *slog.Logger) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) Report(ctx context.Context, e Event) {
	level := slog.LevelInfo
	switch e.Kind {
	case KindZoneFetchFailure, KindPositionFetchFailure:
		level = slog.LevelError
	case KindGeometryWarning, KindFallback:
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("kind", string(e.Kind)),
		slog.String("component", e.Component),
	}
	if e.Kind == KindClassificationSummary {
		attrs = append(attrs, slog.Int("aircraft", e.Aircraft), slog.Int("high_risk", e.HighRisk))
	}
	r.log.LogAttrs(ctx, level, e.Message, attrs...)
}

// Recorder keeps every event it receives. It is used to collect the status
// messages of a single refresh cycle.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Report(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Messages returns the recorded messages in arrival order
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Message)
	}
	return out
}

// Count returns how many events of the given kind were recorded
func (r *Recorder) Count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
