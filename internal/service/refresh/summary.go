package refresh

import (
	"velocirrus/internal/model"
	"velocirrus/internal/service/classifier"
	"velocirrus/internal/util"
)

// Summarize computes the dashboard metrics of a classified cycle.
//
// Live positions belong to unrelated aircraft, so track distance and
// contrail length are only meaningful for the simulated trajectory and are
// zero otherwise. A segment counts towards the contrail length when its
// starting point is HIGH risk.
func Summarize(positions []model.Position, source model.DataSource) model.Summary {
	s := model.Summary{
		Aircraft: len(positions),
		HighRisk: classifier.CountHigh(positions),
	}
	if len(positions) == 0 {
		return s
	}

	var ef float64
	for _, p := range positions {
		ef += p.EnergyForcing
	}
	s.AvgEnergyForcing = ef / float64(len(positions))

	if source != model.SourceSimulated {
		return s
	}

	for i := 1; i < len(positions); i++ {
		a, b := positions[i-1], positions[i]
		km := util.HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude) / 1000
		s.DistanceKm += km
		if a.Risk == model.RiskHigh {
			s.ContrailLengthKm += km
		}
	}
	return s
}
