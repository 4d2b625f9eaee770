package model

// DataSource tells where a refresh got its zones or positions from
type DataSource string

const (
	SourceLive      DataSource = "live"
	SourceCached    DataSource = "cached"
	SourceSimulated DataSource = "simulated"
)

// StatusMessage is the user facing description of a data source
func (s DataSource) StatusMessage() string {
	switch s {
	case SourceLive:
		return "using live data"
	case SourceCached:
		return "using cached data"
	default:
		return "using simulated data"
	}
}
