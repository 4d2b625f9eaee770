package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrMalformedZoneGeometry marks a zone whose boundary can not be used for containment tests
var ErrMalformedZoneGeometry = errors.New("malformed zone geometry")

// Severity is the display class of a zone
type Severity string

const (
	SeverityDanger  Severity = "danger"
	SeverityWarning Severity = "warning"
)

// Color is an RGBA display color
type Color [4]uint8

var (
	ColorDanger  = Color{255, 0, 0, 100}
	ColorWarning = Color{255, 140, 0, 100}
)

// ColorForSeverity returns the fill color used for zones of the given severity
func ColorForSeverity(s Severity) Color {
	if s == SeverityWarning {
		return ColorWarning
	}
	return ColorDanger
}

// Zone is a contrail likely zone
type Zone struct {
	Name     string   `json:"name" msgpack:"name"`
	Boundary orb.Ring `json:"path" msgpack:"path"` // [lon, lat] vertices, closed
	Color    Color    `json:"color" msgpack:"color"`
	Severity Severity `json:"severity" msgpack:"severity"`
}

// NewZone builds a zone, closing the boundary if needed
func NewZone(name string, boundary orb.Ring, severity Severity) Zone {
	return Zone{
		Name:     name,
		Boundary: NormalizeRing(boundary),
		Color:    ColorForSeverity(severity),
		Severity: severity,
	}
}

// Bound returns the bounding box of the zone boundary
func (z Zone) Bound() orb.Bound {
	return z.Boundary.Bound()
}

// Contains reports whether the point lies in the zone. Points on an edge or
// vertex count as inside. Only longitude and latitude are considered.
func (z Zone) Contains(lon, lat float64) bool {
	return planar.RingContains(z.Boundary, orb.Point{lon, lat})
}

// NormalizeRing returns a copy of the ring with the first vertex repeated at the end
func NormalizeRing(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r), len(r)+1)
	copy(out, r)
	if len(out) > 0 && !out.Closed() {
		out = append(out, out[0])
	}
	return out
}

// ValidateZone checks that the boundary describes a simple polygon with
// non-zero area inside WGS84 range
func ValidateZone(z Zone) error {
	ring := NormalizeRing(z.Boundary)

	for i, p := range ring {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return fmt.Errorf("zone %q: vertex %d is not finite: %w", z.Name, i, ErrMalformedZoneGeometry)
		}
		if p[0] < -180 || p[0] > 180 || p[1] < -90 || p[1] > 90 {
			return fmt.Errorf("zone %q: vertex %d out of range (%v, %v): %w", z.Name, i, p[0], p[1], ErrMalformedZoneGeometry)
		}
	}

	if distinctVertices(ring) < 3 {
		return fmt.Errorf("zone %q: fewer than 3 distinct vertices: %w", z.Name, ErrMalformedZoneGeometry)
	}

	if planar.Area(ring) == 0 {
		return fmt.Errorf("zone %q: boundary has zero area: %w", z.Name, ErrMalformedZoneGeometry)
	}

	if selfIntersects(ring) {
		return fmt.Errorf("zone %q: boundary self-intersects: %w", z.Name, ErrMalformedZoneGeometry)
	}

	return nil
}

func distinctVertices(r orb.Ring) int {
	seen := make(map[orb.Point]struct{}, len(r))
	for _, p := range r {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// selfIntersects checks every pair of non-adjacent edges of a closed ring
func selfIntersects(r orb.Ring) bool {
	// drop repeated consecutive vertices so zero-length edges do not count
	pts := make([]orb.Point, 0, len(r))
	for _, p := range r {
		if len(pts) == 0 || pts[len(pts)-1] != p {
			pts = append(pts, p)
		}
	}
	n := len(pts) - 1 // number of edges
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsIntersect(pts[i], pts[i+1], pts[j], pts[j+1]) {
				return true
			}
		}
	}
	return false
}

func segmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	return (d1 == 0 && onSegment(p3, p4, p1)) ||
		(d2 == 0 && onSegment(p3, p4, p2)) ||
		(d3 == 0 && onSegment(p1, p2, p3)) ||
		(d4 == 0 && onSegment(p1, p2, p4))
}

func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}
