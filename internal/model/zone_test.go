package model

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestNormalizeRingClosesOpenRing(t *testing.T) {
	open := orb.Ring{{-40, 45}, {-30, 45}, {-30, 50}, {-40, 50}}
	closed := NormalizeRing(open)

	if len(closed) != 5 {
		t.Fatalf("len = %d, want 5", len(closed))
	}
	if closed[4] != closed[0] {
		t.Fatalf("last vertex = %v, want %v", closed[4], closed[0])
	}
	if len(open) != 4 {
		t.Fatalf("input ring was modified: len = %d", len(open))
	}

	again := NormalizeRing(closed)
	if len(again) != 5 {
		t.Fatalf("closed ring grew to %d vertices", len(again))
	}
}

func TestZoneContainsIsEdgeInclusive(t *testing.T) {
	z := NewZone("square", orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, SeverityDanger)

	cases := []struct {
		name     string
		lon, lat float64
		want     bool
	}{
		{"interior", 5, 5, true},
		{"outside", 11, 5, false},
		{"edge", 10, 5, true},
		{"bottom edge", 5, 0, true},
		{"vertex", 0, 0, true},
		{"far away", -100, 40, false},
	}
	for _, tc := range cases {
		if got := z.Contains(tc.lon, tc.lat); got != tc.want {
			t.Errorf("%s: Contains(%v, %v) = %v, want %v", tc.name, tc.lon, tc.lat, got, tc.want)
		}
	}
}

func TestValidateZone(t *testing.T) {
	cases := []struct {
		name  string
		ring  orb.Ring
		valid bool
	}{
		{"rectangle", orb.Ring{{-40, 45}, {-30, 45}, {-30, 50}, {-40, 50}, {-40, 45}}, true},
		{"open triangle", orb.Ring{{0, 0}, {1, 0}, {0, 1}}, true},
		{"two vertices", orb.Ring{{0, 0}, {1, 1}, {0, 0}}, false},
		{"empty", orb.Ring{}, false},
		{"collinear", orb.Ring{{0, 0}, {1, 1}, {2, 2}, {0, 0}}, false},
		{"bow tie", orb.Ring{{0, 0}, {2, 2}, {2, 0}, {0, 1}, {0, 0}}, false},
		{"out of range", orb.Ring{{0, 0}, {200, 0}, {0, 1}, {0, 0}}, false},
		{"nan", orb.Ring{{0, 0}, {math.NaN(), 0}, {0, 1}, {0, 0}}, false},
	}

	for _, tc := range cases {
		err := ValidateZone(Zone{Name: tc.name, Boundary: tc.ring})
		if tc.valid && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.valid {
			if err == nil {
				t.Errorf("%s: expected error", tc.name)
			} else if !errors.Is(err, ErrMalformedZoneGeometry) {
				t.Errorf("%s: error %v does not wrap ErrMalformedZoneGeometry", tc.name, err)
			}
		}
	}
}

func TestWithRiskSetsColor(t *testing.T) {
	p := Position{Longitude: -35, Latitude: 47, Callsign: "AAL100"}

	high := p.WithRisk(RiskHigh, "Zone Alpha")
	if high.Color != ColorHighRisk || high.Zone != "Zone Alpha" {
		t.Fatalf("high = %+v", high)
	}
	if p.Risk != RiskLow || p.Zone != "" {
		t.Fatalf("original position mutated: %+v", p)
	}

	low := p.WithRisk(RiskLow, "")
	if low.Color != ColorLowRisk {
		t.Fatalf("low color = %v, want %v", low.Color, ColorLowRisk)
	}
}

func TestDataSourceStatusMessage(t *testing.T) {
	if got := SourceLive.StatusMessage(); got != "using live data" {
		t.Errorf("live = %q", got)
	}
	if got := SourceCached.StatusMessage(); got != "using cached data" {
		t.Errorf("cached = %q", got)
	}
	if got := SourceSimulated.StatusMessage(); got != "using simulated data" {
		t.Errorf("simulated = %q", got)
	}
}
