package flight

import (
	"time"
)

// Route element types as they appear in predicted route data
const (
	ElementTypeAerodrome = "AERODROME"
	ElementTypeWaypoint  = "WAYPOINT"
)

// TrackingPoint represents a single surveillance position attached to a real
// flight. Coordinates are stored in radians as delivered by the tracking
// source; altitude is a flight level (hundreds of feet). Points are immutable
// once attached.
type TrackingPoint struct {
	LatRad      float64   `json:"lat_rad"`
	LonRad      float64   `json:"lon_rad"`
	FlightLevel float64   `json:"flight_level"`
	GroundSpeed float64   `json:"ground_speed"`
	Sequence    int64     `json:"sequence"`
	ReceivedAt  time.Time `json:"received_at"`
}

// RealFlight represents one live flight instance built from flight intention
// records and tracking points. PlanID is unique; Indicative (call sign) is
// not - several flights can share it across a day.
type RealFlight struct {
	PlanID             int64           `json:"plan_id"`
	Indicative         string          `json:"indicative"`
	Origin             string          `json:"origin"`
	Destination        string          `json:"destination"`
	FlightPlanDate     time.Time       `json:"flight_plan_date"`
	ScheduledArrival   time.Time       `json:"scheduled_arrival"`
	CurrentArrival     time.Time       `json:"current_arrival"`
	TrackingPoints     []TrackingPoint `json:"tracking_points,omitempty"`
	TrackingPointCount int             `json:"tracking_point_count"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// FirstTrackingPoint returns the first attached point, or nil if the flight
// has no track yet.
func (f *RealFlight) FirstTrackingPoint() *TrackingPoint {
	if len(f.TrackingPoints) == 0 {
		return nil
	}
	return &f.TrackingPoints[0]
}

// LastTrackingPoint returns the most recently attached point, or nil.
func (f *RealFlight) LastTrackingPoint() *TrackingPoint {
	if len(f.TrackingPoints) == 0 {
		return nil
	}
	return &f.TrackingPoints[len(f.TrackingPoints)-1]
}

// RouteElement represents one point of a predicted route. Coordinates are in
// degrees and altitude in meters, as supplied by the prediction source.
// Interpolated is false for originally supplied elements and true for
// densification-added ones.
type RouteElement struct {
	ID           int64   `json:"id"`
	LatDeg       float64 `json:"lat_deg"`
	LonDeg       float64 `json:"lon_deg"`
	AltitudeM    float64 `json:"altitude_m"`
	SpeedKts     float64 `json:"speed_kts"`
	EETMinutes   float64 `json:"eet_minutes"`
	Type         string  `json:"type"`
	Interpolated bool    `json:"interpolated"`
	MagTrackDeg  float64 `json:"mag_track_deg,omitempty"`
}

// RouteSegment records the distance between two consecutive route elements,
// referenced by element id.
type RouteSegment struct {
	FromID     int64   `json:"from_id"`
	ToID       int64   `json:"to_id"`
	DistanceNM float64 `json:"distance_nm"`
}

// PredictedFlight represents one predicted route. InstanceID equals the
// corresponding RealFlight's PlanID when a correspondence exists; there is no
// referential guarantee otherwise.
type PredictedFlight struct {
	InstanceID    int64          `json:"instance_id"`
	Indicative    string         `json:"indicative"`
	Departure     string         `json:"departure"`
	Arrival       string         `json:"arrival"`
	TimeWindow    string         `json:"time_window"`
	RouteElements []RouteElement `json:"route_elements,omitempty"`
	Segments      []RouteSegment `json:"segments,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// DepartureElement returns the first route element if it is an aerodrome.
func (p *PredictedFlight) DepartureElement() *RouteElement {
	if len(p.RouteElements) == 0 || p.RouteElements[0].Type != ElementTypeAerodrome {
		return nil
	}
	return &p.RouteElements[0]
}

// ArrivalElement returns the last route element if it is an aerodrome.
func (p *PredictedFlight) ArrivalElement() *RouteElement {
	n := len(p.RouteElements)
	if n == 0 || p.RouteElements[n-1].Type != ElementTypeAerodrome {
		return nil
	}
	return &p.RouteElements[n-1]
}

// QualifiedPair is a real/predicted flight association that passed route,
// endpoint-type, and geographic/altitude validation. Computed per analysis
// run, never persisted.
type QualifiedPair struct {
	Real      *RealFlight
	Predicted *PredictedFlight

	// Ground-proximity points and aerodrome elements selected during
	// validation, reused by the duration extractor.
	FirstPoint    *TrackingPoint
	LastPoint     *TrackingPoint
	DepartureElem *RouteElement
	ArrivalElem   *RouteElement
}
