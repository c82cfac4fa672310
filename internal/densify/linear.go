package densify

import (
	"time"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/geo"
)

// linearPoint generates one intermediate point at the given fraction of the
// segment: position interpolated along the great circle between the
// endpoints, altitude and speed interpolated linearly, and the estimated
// elapsed time placed at the same fraction of the segment's time span. The
// point also carries the magnetic track along the segment at its position.
func linearPoint(start, end flight.RouteElement, fraction float64) flight.RouteElement {
	lat, lon := geo.Intermediate(start.LatDeg, start.LonDeg, end.LatDeg, end.LonDeg, fraction)
	alt := geo.Lerp(start.AltitudeM, end.AltitudeM, fraction)

	trueTrack := geo.InitialBearing(lat, lon, end.LatDeg, end.LonDeg)

	return flight.RouteElement{
		LatDeg:       lat,
		LonDeg:       lon,
		AltitudeM:    alt,
		SpeedKts:     geo.Lerp(start.SpeedKts, end.SpeedKts, fraction),
		EETMinutes:   geo.Lerp(start.EETMinutes, end.EETMinutes, fraction),
		Type:         flight.ElementTypeWaypoint,
		Interpolated: true,
		MagTrackDeg:  geo.MagneticTrack(trueTrack, lat, lon, alt, time.Now().UTC()),
	}
}
