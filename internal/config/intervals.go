package config

import "time"

const (
	// DefaultRemoteTimeout bounds every call to the zone service and the position feed
	DefaultRemoteTimeout = 5 * time.Second

	// DefaultZoneCacheWindow is the timestamp bucket used to key cached zone sets
	DefaultZoneCacheWindow = 5 * time.Minute

	// DefaultHistoryInterval is how often pending refresh summaries are written to PostgreSQL
	DefaultHistoryInterval = 30 * time.Second

	// DefaultMinAltitude filters out ground and non-cruising traffic (meters)
	DefaultMinAltitude = 5000.0
)
