package position

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"velocirrus/internal/model"
	"velocirrus/internal/observability"
)

// Service supplies the positions of a refresh cycle, substituting the
// simulated trajectory whenever live positions are unavailable
type Service struct {
	feed        Feed
	minAltitude float64
	log         *slog.Logger
}

// NewService builds a position service. A nil feed disables live positions.
func NewService(feed Feed, minAltitude float64, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{feed: feed, minAltitude: minAltitude, log: log}
}

// LiveEnabled reports whether a live feed is configured
func (s *Service) LiveEnabled() bool {
	return s.feed != nil
}

// Positions always returns a non-empty sequence. Feed failures are reported
// and replaced by the simulated trajectory.
func (s *Service) Positions(ctx context.Context, at time.Time, live bool, rep observability.Reporter) ([]model.Position, model.DataSource) {
	if rep == nil {
		rep = observability.Noop()
	}

	if !live || s.feed == nil {
		return s.simulate(ctx, at, rep, "live positions disabled; using simulated trajectory")
	}

	states, err := s.feed.States(ctx)
	if err != nil {
		rep.Report(ctx, observability.Event{
			Kind:      observability.KindPositionFetchFailure,
			Component: observability.ComponentPositions,
			Message:   err.Error(),
		})
		return s.simulate(ctx, at, rep, "position feed unavailable; using simulated trajectory")
	}

	positions := Filter(states, s.minAltitude, at)
	if len(positions) == 0 {
		return s.simulate(ctx, at, rep,
			fmt.Sprintf("no cruising aircraft among %d live records; using simulated trajectory", len(states)))
	}

	s.log.Info("live positions loaded", slog.Int("records", len(states)), slog.Int("cruising", len(positions)))
	return positions, model.SourceLive
}

func (s *Service) simulate(ctx context.Context, at time.Time, rep observability.Reporter, reason string) ([]model.Position, model.DataSource) {
	rep.Report(ctx, observability.Event{
		Kind:      observability.KindFallback,
		Component: observability.ComponentPositions,
		Message:   reason,
	})
	return SimulatedTrajectory(at), model.SourceSimulated
}
