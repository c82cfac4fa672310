// Package geo provides the great-circle distance, bearing, and interpolation
// primitives used by flight matching and route densification. These are
// spherical-earth approximations, acceptable at the regional scales involved
// (hundreds of km); this is deliberately not a general geodesy library.
package geo

import (
	"math"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// Constants
const (
	EarthRadiusM    = 6371000.0 // Mean earth radius (m)
	MetersPerNM     = 1852.0    // Meters per nautical mile
	FeetToMeters    = 0.3048    // Conversion factor from feet to meters
	FlightLevelFeet = 100.0     // One flight level = 100 feet
)

// DegToRad converts degrees to radians
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// RadiansToMeters converts an angular distance in radians to meters along the
// earth's surface
func RadiansToMeters(rad float64) float64 {
	return rad * EarthRadiusM
}

// MetersToNM converts meters to nautical miles
func MetersToNM(meters float64) float64 {
	return meters / MetersPerNM
}

// FlightLevelToMeters converts a flight level (hundreds of feet) to meters
func FlightLevelToMeters(fl float64) float64 {
	return fl * FlightLevelFeet * FeetToMeters
}

// Haversine returns the great-circle distance in meters between two points
// given in decimal degrees
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := DegToRad(lat1)
	phi2 := DegToRad(lat2)
	dPhi := DegToRad(lat2 - lat1)
	dLambda := DegToRad(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// HaversineNM returns the great-circle distance in nautical miles between two
// points given in decimal degrees
func HaversineNM(lat1, lon1, lat2, lon2 float64) float64 {
	return MetersToNM(Haversine(lat1, lon1, lat2, lon2))
}

// InitialBearing returns the initial great-circle bearing in degrees (0-360)
// from the first point to the second, both in decimal degrees
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := DegToRad(lat1)
	phi2 := DegToRad(lat2)
	dLambda := DegToRad(lon2 - lon1)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	bearing := RadToDeg(math.Atan2(y, x))
	if bearing < 0 {
		bearing += 360
	}
	return bearing
}

// Intermediate returns the point at the given fraction (0 = start, 1 = end)
// along the great circle between two points in decimal degrees. Uses
// spherical interpolation; for coincident points the start is returned.
func Intermediate(lat1, lon1, lat2, lon2, fraction float64) (float64, float64) {
	phi1 := DegToRad(lat1)
	lambda1 := DegToRad(lon1)
	phi2 := DegToRad(lat2)
	lambda2 := DegToRad(lon2)

	// Angular distance between the points
	delta := Haversine(lat1, lon1, lat2, lon2) / EarthRadiusM
	if delta == 0 {
		return lat1, lon1
	}

	a := math.Sin((1-fraction)*delta) / math.Sin(delta)
	b := math.Sin(fraction*delta) / math.Sin(delta)

	x := a*math.Cos(phi1)*math.Cos(lambda1) + b*math.Cos(phi2)*math.Cos(lambda2)
	y := a*math.Cos(phi1)*math.Sin(lambda1) + b*math.Cos(phi2)*math.Sin(lambda2)
	z := a*math.Sin(phi1) + b*math.Sin(phi2)

	phi := math.Atan2(z, math.Sqrt(x*x+y*y))
	lambda := math.Atan2(y, x)

	return RadToDeg(phi), RadToDeg(lambda)
}

// Lerp linearly interpolates between two scalars at the given fraction
func Lerp(start, end, fraction float64) float64 {
	return start + (end-start)*fraction
}

// MagneticTrack returns the magnetic track in degrees for a true track at the
// given position and time, correcting by WMM declination. Returns the true
// track unchanged if the declination calculation fails.
func MagneticTrack(trueTrackDeg, lat, lon, altM float64, date time.Time) float64 {
	loc := egm96.NewLocationGeodetic(lat, lon, altM)
	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return trueTrackDeg
	}

	track := trueTrackDeg - mag.D()
	if track < 0 {
		track += 360
	}
	if track >= 360 {
		track -= 360
	}
	return track
}
