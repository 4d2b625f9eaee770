package position

import (
	"math"
	"time"

	"velocirrus/internal/model"
	"velocirrus/internal/util"
)

// Simulated London Heathrow to New York JFK crossing
const (
	SimulatedPoints   = 100
	SimulatedCallsign = "SIM100"

	simStartLon, simStartLat = -0.45, 51.47
	simEndLon, simEndLat     = -73.77, 40.64
	simStartAlt, simEndAlt   = 10668.0, 11887.0 // FL350 to FL390

	simStep = 288 * time.Second // 4.8 minutes, an 8 hour flight
)

// SimulatedTrajectory returns a deterministic great-circle track of
// SimulatedPoints positions. The energy forcing profile peaks over the middle
// of the Atlantic.
func SimulatedTrajectory(start time.Time) []model.Position {
	positions := make([]model.Position, SimulatedPoints)
	last := float64(SimulatedPoints - 1)

	for i := range positions {
		fraction := float64(i) / last
		p := util.Interpolate(simStartLon, simStartLat, simEndLon, simEndLat, fraction)

		positions[i] = model.Position{
			Longitude:     p[0],
			Latitude:      p[1],
			Altitude:      simStartAlt + (simEndAlt-simStartAlt)*fraction,
			Callsign:      SimulatedCallsign,
			Time:          start.Add(time.Duration(i) * simStep),
			EnergyForcing: energyForcing(i),
		}
	}
	return positions
}

func energyForcing(i int) float64 {
	if i > 30 && i < 70 {
		return 50 * math.Sin(float64(i)/10)
	}
	return 0
}
