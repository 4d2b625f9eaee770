package classifier

import (
	"context"
	"fmt"

	"velocirrus/internal/model"
	"velocirrus/internal/observability"
)

// Classifier assigns HIGH or LOW risk to positions by polygon containment.
//
// The test is two dimensional: altitude is ignored on purpose, every zone is
// treated as covering all flight levels. Containment is edge inclusive, so a
// position on a zone boundary or vertex is HIGH risk. When zones overlap the
// first zone in list order wins.
type Classifier struct {
	newMatcher MatcherFactory
}

type Option func(*Classifier)

// WithMatcher replaces the default linear scan, e.g. with NewRTreeMatcher
func WithMatcher(f MatcherFactory) Option {
	return func(c *Classifier) {
		c.newMatcher = f
	}
}

func New(opts ...Option) *Classifier {
	c := &Classifier{newMatcher: NewLinearMatcher}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns annotated copies of positions in input order. Zones that
// fail validation are skipped with a warning; with no usable zones every
// position is LOW risk. The inputs are never modified.
func (c *Classifier) Classify(ctx context.Context, positions []model.Position, zones []model.Zone, rep observability.Reporter) []model.Position {
	if rep == nil {
		rep = observability.Noop()
	}

	usable := usableZones(ctx, zones, rep)
	out := make([]model.Position, len(positions))

	var m Matcher
	if len(usable) > 0 {
		m = c.newMatcher(usable)
	}

	high := 0
	for i, p := range positions {
		if m != nil {
			if idx, ok := m.Match(p.Longitude, p.Latitude); ok {
				out[i] = p.WithRisk(model.RiskHigh, usable[idx].Name)
				high++
				continue
			}
		}
		out[i] = p.WithRisk(model.RiskLow, "")
	}

	rep.Report(ctx, observability.Event{
		Kind:      observability.KindClassificationSummary,
		Component: observability.ComponentClassifier,
		Message:   fmt.Sprintf("classified %d positions against %d zones, %d high risk", len(out), len(usable), high),
		Aircraft:  len(out),
		HighRisk:  high,
	})
	return out
}

// Classify runs the default classifier without reporting
func Classify(positions []model.Position, zones []model.Zone) []model.Position {
	return New().Classify(context.Background(), positions, zones, nil)
}

// CountHigh returns the number of HIGH risk positions
func CountHigh(positions []model.Position) int {
	n := 0
	for _, p := range positions {
		if p.Risk >= model.RiskHigh {
			n++
		}
	}
	return n
}

func usableZones(ctx context.Context, zones []model.Zone, rep observability.Reporter) []model.Zone {
	usable := make([]model.Zone, 0, len(zones))
	for _, z := range zones {
		if err := model.ValidateZone(z); err != nil {
			rep.Report(ctx, observability.Event{
				Kind:      observability.KindGeometryWarning,
				Component: observability.ComponentClassifier,
				Message:   fmt.Sprintf("%v; zone skipped", err),
			})
			continue
		}
		usable = append(usable, z)
	}
	return usable
}
