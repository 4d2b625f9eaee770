package position

import (
	"time"

	"velocirrus/internal/model"
)

// Filter turns raw states into positions, dropping records that lack an
// identifier or a 3-D position and records at or below minAltitude.
// The callsign falls back to the ICAO address when the feed left it blank.
func Filter(states []RawState, minAltitude float64, at time.Time) []model.Position {
	positions := make([]model.Position, 0, len(states))
	for _, s := range states {
		if s.ICAO24 == "" || s.Longitude == nil || s.Latitude == nil || s.Altitude == nil {
			continue
		}
		if *s.Altitude <= minAltitude {
			continue
		}

		callsign := s.Callsign
		if callsign == "" {
			callsign = s.ICAO24
		}
		observed := s.LastContact
		if observed.IsZero() {
			observed = at
		}

		positions = append(positions, model.Position{
			Longitude: *s.Longitude,
			Latitude:  *s.Latitude,
			Altitude:  *s.Altitude,
			Callsign:  callsign,
			ICAO24:    s.ICAO24,
			Time:      observed,
		})
	}
	return positions
}
