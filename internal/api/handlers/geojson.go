package routes

import (
	"velocirrus/internal/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ZonesToFeatureCollection renders zones as polygon features
func ZonesToFeatureCollection(zones []model.Zone) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, z := range zones {
		f := geojson.NewFeature(orb.Polygon{z.Boundary})
		f.Properties["name"] = z.Name
		f.Properties["severity"] = string(z.Severity)
		f.Properties["color"] = z.Color
		fc.Append(f)
	}
	return fc
}

// PositionsToFeatureCollection renders classified positions as point features
func PositionsToFeatureCollection(positions []model.Position) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range positions {
		f := geojson.NewFeature(orb.Point{p.Longitude, p.Latitude})
		f.Properties["callsign"] = p.Callsign
		f.Properties["altitude"] = p.Altitude
		f.Properties["time"] = p.Time
		f.Properties["ef"] = p.EnergyForcing
		f.Properties["risk"] = int(p.Risk)
		f.Properties["color"] = p.Color
		if p.ICAO24 != "" {
			f.Properties["icao24"] = p.ICAO24
		}
		if p.Zone != "" {
			f.Properties["zone"] = p.Zone
		}
		fc.Append(f)
	}
	return fc
}
