package classifier

import (
	"sort"

	"velocirrus/internal/model"

	"github.com/dhconnelly/rtreego"
)

// Matcher finds the first zone, in listed order, that contains a point.
type Matcher interface {
	Match(lon, lat float64) (int, bool)
}

// MatcherFactory builds a Matcher over an already validated zone list
type MatcherFactory func(zones []model.Zone) Matcher

// LinearMatcher tests every zone in order
type LinearMatcher struct {
	zones []model.Zone
}

func NewLinearMatcher(zones []model.Zone) Matcher {
	return &LinearMatcher{zones: zones}
}

func (m *LinearMatcher) Match(lon, lat float64) (int, bool) {
	for i, z := range m.zones {
		if z.Contains(lon, lat) {
			return i, true
		}
	}
	return -1, false
}

// searchRadius is the half size of the query box built around a point
const searchRadius = 1e-9

// zoneSpatial is a zone entry in the R-tree
type zoneSpatial struct {
	index int
	rect  rtreego.Rect
}

// Bounds implements the rtreego.Spatial interface
func (z *zoneSpatial) Bounds() rtreego.Rect {
	return z.rect
}

// RTreeMatcher narrows the candidates with a bounding box index before the
// precise containment test. Candidates are tested in zone order so the result
// matches LinearMatcher.
type RTreeMatcher struct {
	zones []model.Zone
	tree  *rtreego.Rtree
}

func NewRTreeMatcher(zones []model.Zone) Matcher {
	m := &RTreeMatcher{
		zones: zones,
		tree:  rtreego.NewTree(2, 25, 50), // 2D index with min 25, max 50 entries per node
	}

	for i, z := range zones {
		b := z.Bound()
		rect, err := rtreego.NewRect(
			rtreego.Point{b.Min[0], b.Min[1]},
			[]float64{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1]},
		)
		if err != nil {
			// zero width box, nothing can be strictly inside
			continue
		}
		m.tree.Insert(&zoneSpatial{index: i, rect: rect})
	}
	return m
}

func (m *RTreeMatcher) Match(lon, lat float64) (int, bool) {
	searchRect, err := rtreego.NewRect(
		rtreego.Point{lon - searchRadius, lat - searchRadius},
		[]float64{2 * searchRadius, 2 * searchRadius},
	)
	if err != nil {
		return -1, false
	}

	results := m.tree.SearchIntersect(searchRect)
	if len(results) == 0 {
		return -1, false
	}

	candidates := make([]int, 0, len(results))
	for _, item := range results {
		candidates = append(candidates, item.(*zoneSpatial).index)
	}
	sort.Ints(candidates)

	for _, i := range candidates {
		if m.zones[i].Contains(lon, lat) {
			return i, true
		}
	}
	return -1, false
}
