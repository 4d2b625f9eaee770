package model

import "time"

// Risk is the radiative-forcing risk score assigned by the classifier
type Risk int

const (
	RiskLow  Risk = 0
	RiskHigh Risk = 100
)

func (r Risk) String() string {
	if r >= RiskHigh {
		return "high"
	}
	return "low"
}

var (
	ColorHighRisk = Color{255, 0, 0, 200}
	ColorLowRisk  = Color{0, 255, 0, 200}
)

// ColorForRisk returns the display color of a classified position
func ColorForRisk(r Risk) Color {
	if r >= RiskHigh {
		return ColorHighRisk
	}
	return ColorLowRisk
}

// Position is an observed or simulated aircraft state.
// Risk, Zone and Color are only set by classification.
type Position struct {
	Longitude     float64   `json:"longitude"`
	Latitude      float64   `json:"latitude"`
	Altitude      float64   `json:"altitude"` // meters
	Callsign      string    `json:"callsign"`
	ICAO24        string    `json:"icao24,omitempty"`
	Time          time.Time `json:"time"`
	EnergyForcing float64   `json:"ef"` // W/m², synthetic

	Risk  Risk   `json:"risk"`
	Zone  string `json:"zone,omitempty"`
	Color Color  `json:"color"`
}

// WithRisk returns a copy of the position annotated with the given risk
func (p Position) WithRisk(r Risk, zone string) Position {
	p.Risk = r
	p.Zone = zone
	p.Color = ColorForRisk(r)
	return p
}
