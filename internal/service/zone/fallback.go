package zone

import (
	"velocirrus/internal/model"

	"github.com/paulmach/orb"
)

// FallbackZones returns the fixed pair of North Atlantic zones served when
// live zones are unavailable. A new slice is returned on every call.
func FallbackZones() []model.Zone {
	return []model.Zone{
		model.NewZone(
			"Zone Alpha (High Humidity)",
			orb.Ring{{-40, 45}, {-30, 45}, {-30, 50}, {-40, 50}, {-40, 45}},
			model.SeverityDanger,
		),
		model.NewZone(
			"Zone Beta (Ice Supersaturated)",
			orb.Ring{{-20, 48}, {-15, 48}, {-15, 52}, {-20, 52}, {-20, 48}},
			model.SeverityWarning,
		),
	}
}
