package util

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371000.0

// Interpolate returns the [lon, lat] point at the given fraction of the great
// circle path between start and end
func Interpolate(startLon, startLat, endLon, endLat, fraction float64) [2]float64 {
	if fraction <= 0 {
		return [2]float64{startLon, startLat}
	}
	if fraction >= 1 {
		return [2]float64{endLon, endLat}
	}

	// Convert degrees to S2 points
	startPoint := s2.PointFromLatLng(s2.LatLngFromDegrees(startLat, startLon))
	endPoint := s2.PointFromLatLng(s2.LatLngFromDegrees(endLat, endLon))

	// Interpolate on the great circle path
	newPoint := s2.Interpolate(fraction, startPoint, endPoint)
	newLatLng := s2.LatLngFromPoint(newPoint)

	return [2]float64{newLatLng.Lng.Degrees(), newLatLng.Lat.Degrees()}
}

// HaversineDistance returns the great circle distance in meters
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	// Convert coordinates from degrees to S2 points
	point1 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat1, lng1))
	point2 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat2, lng2))

	// Calculate angle between points
	angle := s1.Angle(s2.ChordAngleBetweenPoints(point1, point2).Angle())

	// Convert angle to distance on Earth's surface
	return angle.Radians() * earthRadiusMeters
}
