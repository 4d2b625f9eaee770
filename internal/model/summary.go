package model

import (
	"time"

	"gorm.io/gorm"
)

// Summary holds the dashboard metrics of one refresh cycle
type Summary struct {
	Aircraft         int     `json:"aircraft"`
	HighRisk         int     `json:"high_risk"`
	DistanceKm       float64 `json:"distance_km"`
	AvgEnergyForcing float64 `json:"avg_ef"`
	ContrailLengthKm float64 `json:"contrail_length_km"`
}

// RefreshSummaryPG model for PostgreSQL storage
type RefreshSummaryPG struct {
	ID               string     `gorm:"primaryKey;size:32"`
	At               time.Time  `gorm:"index;not null"`
	ZoneSource       DataSource `gorm:"size:16;not null"`
	PositionSource   DataSource `gorm:"size:16;not null"`
	Aircraft         int        `gorm:"not null"`
	HighRisk         int        `gorm:"not null"`
	DistanceKm       float64
	AvgEnergyForcing float64
	ContrailLengthKm float64

	CreatedAt time.Time      `gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// TableName overrides the table name
func (RefreshSummaryPG) TableName() string {
	return "refresh_summaries"
}

// SummaryToPG creates a RefreshSummaryPG from a cycle summary
func SummaryToPG(id string, at time.Time, zones, positions DataSource, s Summary) *RefreshSummaryPG {
	return &RefreshSummaryPG{
		ID:               id,
		At:               at,
		ZoneSource:       zones,
		PositionSource:   positions,
		Aircraft:         s.Aircraft,
		HighRisk:         s.HighRisk,
		DistanceKm:       s.DistanceKm,
		AvgEnergyForcing: s.AvgEnergyForcing,
		ContrailLengthKm: s.ContrailLengthKm,
	}
}

// Summary converts the stored row back into a cycle summary
func (pg *RefreshSummaryPG) Summary() Summary {
	return Summary{
		Aircraft:         pg.Aircraft,
		HighRisk:         pg.HighRisk,
		DistanceKm:       pg.DistanceKm,
		AvgEnergyForcing: pg.AvgEnergyForcing,
		ContrailLengthKm: pg.ContrailLengthKm,
	}
}
