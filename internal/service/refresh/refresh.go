package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"velocirrus/internal/model"
	"velocirrus/internal/observability"
	"velocirrus/internal/service/classifier"
	"velocirrus/internal/service/storage"
	"velocirrus/internal/service/zone"
	"velocirrus/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoSnapshot is returned when no cycle has completed yet
var ErrNoSnapshot = errors.New("no refresh snapshot available")

// ZoneSource produces the zone set of a cycle
type ZoneSource interface {
	GetZones(ctx context.Context, credential string, at time.Time, rep observability.Reporter) zone.Result
}

// PositionSource produces the positions of a cycle
type PositionSource interface {
	Positions(ctx context.Context, at time.Time, live bool, rep observability.Reporter) ([]model.Position, model.DataSource)
}

// HistoryStore persists cycle summaries
type HistoryStore interface {
	Save(ctx context.Context, rows []*model.RefreshSummaryPG) error
	Recent(ctx context.Context, limit int) ([]model.RefreshSummaryPG, error)
}

// Request selects the inputs of one cycle
type Request struct {
	At            time.Time
	Credential    string
	LivePositions bool
}

// Snapshot is the outcome of one refresh cycle
type Snapshot struct {
	ID             string           `json:"id"`
	At             time.Time        `json:"at"`
	Zones          []model.Zone     `json:"zones"`
	Positions      []model.Position `json:"positions"`
	ZoneSource     model.DataSource `json:"zone_source"`
	PositionSource model.DataSource `json:"position_source"`
	Status         string           `json:"status"`
	Messages       []string         `json:"messages"`
	Summary        model.Summary    `json:"summary"`
}

// Options wires a Refresher
type Options struct {
	Zones      ZoneSource
	Positions  PositionSource
	Classifier *classifier.Classifier
	History    HistoryStore                   // optional
	Reporter   observability.Reporter         // receives every event, e.g. log and metrics
	Metrics    *observability.MetricsReporter // optional, records cycle latency
	Logger     *slog.Logger
	Keep       int // recent snapshots kept in memory
}

// Refresher runs refresh cycles one at a time
type Refresher struct {
	mu sync.Mutex

	zones      ZoneSource
	positions  PositionSource
	classifier *classifier.Classifier
	history    HistoryStore
	reporter   observability.Reporter
	metrics    *observability.MetricsReporter
	log        *slog.Logger
	tracer     trace.Tracer

	snapshots storage.Storage[string, Snapshot]
}

func New(opts Options) *Refresher {
	if opts.Classifier == nil {
		opts.Classifier = classifier.New()
	}
	if opts.Reporter == nil {
		opts.Reporter = observability.Noop()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Keep <= 0 {
		opts.Keep = 32
	}

	return &Refresher{
		zones:      opts.Zones,
		positions:  opts.Positions,
		classifier: opts.Classifier,
		history:    opts.History,
		reporter:   opts.Reporter,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		tracer:     observability.Tracer(),
		snapshots:  storage.NewMemoryStorage[string, Snapshot](opts.Keep),
	}
}

// Refresh runs zones, positions and classification strictly in sequence.
// A cycle started while another is in flight waits for it to finish. Remote
// failures fall back and are listed in the snapshot messages; the only error
// is a context that is already done.
func (r *Refresher) Refresh(ctx context.Context, req Request) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("refresh cancelled: %w", err)
	}
	if req.At.IsZero() {
		req.At = time.Now().UTC()
	}

	start := time.Now()
	id := util.NewCycleID()

	ctx, span := r.tracer.Start(ctx, "refresh", trace.WithAttributes(
		attribute.String("cycle.id", id),
		attribute.String("cycle.at", req.At.Format(time.RFC3339)),
		attribute.Bool("cycle.live_positions", req.LivePositions),
	))
	defer span.End()

	rec := observability.NewRecorder()
	rep := observability.Multi(rec, r.reporter)

	zctx, zspan := r.tracer.Start(ctx, "refresh.zones")
	zones := r.zones.GetZones(zctx, req.Credential, req.At, rep)
	zspan.SetAttributes(attribute.String("source", string(zones.Source)), attribute.Int("zones", len(zones.Zones)))
	zspan.End()

	pctx, pspan := r.tracer.Start(ctx, "refresh.positions")
	positions, positionSource := r.positions.Positions(pctx, req.At, req.LivePositions, rep)
	pspan.SetAttributes(attribute.String("source", string(positionSource)), attribute.Int("positions", len(positions)))
	pspan.End()

	cctx, cspan := r.tracer.Start(ctx, "refresh.classify")
	classified := r.classifier.Classify(cctx, positions, zones.Zones, rep)
	cspan.End()

	snap := Snapshot{
		ID:             id,
		At:             req.At,
		Zones:          zones.Zones,
		Positions:      classified,
		ZoneSource:     zones.Source,
		PositionSource: positionSource,
		Status:         StatusLine(zones.Source, positionSource),
		Messages:       rec.Messages(),
		Summary:        Summarize(classified, positionSource),
	}

	if rec.Count(observability.KindFallback) > 0 {
		span.SetStatus(codes.Error, "fallback data served")
	}
	span.SetAttributes(
		attribute.Int("summary.aircraft", snap.Summary.Aircraft),
		attribute.Int("summary.high_risk", snap.Summary.HighRisk),
	)

	r.snapshots.Set(id, snap)
	if r.history == nil {
		// nothing will flush it
		r.snapshots.ClearDirty([]string{id})
	}

	elapsed := time.Since(start)
	if r.metrics != nil {
		r.metrics.ObserveRefresh(string(zones.Source), string(positionSource), elapsed.Seconds())
	}
	r.log.Info("refresh complete",
		slog.String("id", id),
		slog.String("status", snap.Status),
		slog.Int("aircraft", snap.Summary.Aircraft),
		slog.Int("high_risk", snap.Summary.HighRisk),
		slog.Duration("took", elapsed),
	)

	return snap, nil
}

// Latest returns the most recent snapshot
func (r *Refresher) Latest() (Snapshot, error) {
	snap, ok := r.snapshots.Latest()
	if !ok {
		return Snapshot{}, ErrNoSnapshot
	}
	return snap, nil
}

// Snapshot returns a recent snapshot by cycle ID
func (r *Refresher) Snapshot(id string) (Snapshot, bool) {
	return r.snapshots.Get(id)
}

// HistoryEnabled reports whether summaries are persisted
func (r *Refresher) HistoryEnabled() bool {
	return r.history != nil
}

// History returns up to limit stored summaries, newest first
func (r *Refresher) History(ctx context.Context, limit int) ([]model.RefreshSummaryPG, error) {
	if r.history == nil {
		return nil, nil
	}
	return r.history.Recent(ctx, limit)
}

// FlushHistory persists the summaries of snapshots not yet stored. A failed
// save keeps them pending for the next flush.
func (r *Refresher) FlushHistory(ctx context.Context) (int, error) {
	if r.history == nil {
		return 0, nil
	}

	dirty := r.snapshots.GetDirty()
	if len(dirty) == 0 {
		return 0, nil
	}

	rows := make([]*model.RefreshSummaryPG, 0, len(dirty))
	keys := make([]string, 0, len(dirty))
	for id, snap := range dirty {
		rows = append(rows, model.SummaryToPG(id, snap.At, snap.ZoneSource, snap.PositionSource, snap.Summary))
		keys = append(keys, id)
	}

	if err := r.history.Save(ctx, rows); err != nil {
		return 0, err
	}
	r.snapshots.ClearDirty(keys)
	return len(rows), nil
}

// StatusLine describes where zones and positions came from
func StatusLine(zones, positions model.DataSource) string {
	return fmt.Sprintf("zones: %s; positions: %s", zones.StatusMessage(), positions.StatusMessage())
}
