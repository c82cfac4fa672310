package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
)

// FlexibleField can hold either a string or a number
type FlexibleField struct {
	value any
}

// UnmarshalJSON implements custom JSON unmarshaling for FlexibleField
func (f *FlexibleField) UnmarshalJSON(data []byte) error {
	// Try to unmarshal as a number first
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		f.value = num
		return nil
	}

	// If that fails, try to unmarshal as a string
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		f.value = str
		return nil
	}

	// If both fail, try to unmarshal as a boolean
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		f.value = b
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleField", data)
}

// Float64 returns the value as a float64
func (f *FlexibleField) Float64() float64 {
	switch v := f.value.(type) {
	case float64:
		return v
	case string:
		if v == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return parsed
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Int64 returns the value as an int64
func (f *FlexibleField) Int64() int64 {
	switch v := f.value.(type) {
	case float64:
		return int64(v)
	case string:
		if v == "" {
			return 0
		}
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Bool returns the value as a bool
func (f *FlexibleField) Bool() bool {
	switch v := f.value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v == "true" || v == "1"
	default:
		return false
	}
}

// String returns the value as a string
func (f *FlexibleField) String() string {
	switch v := f.value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Timestamp layouts accepted from upstream feeds, tried in order
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses an upstream timestamp string, tolerating the layout
// variations the feeds produce. Returns the zero time for empty input.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp: %q", s)
}

// RawFlightIntention is the tolerant wire form of a flight intention record
type RawFlightIntention struct {
	PlanID           FlexibleField `json:"plan_id"`
	Indicative       string        `json:"indicative"`
	Origin           string        `json:"origin"`
	Destination      string        `json:"destination"`
	FlightPlanDate   string        `json:"flight_plan_date"`
	ScheduledArrival string        `json:"scheduled_arrival"`
	CurrentArrival   string        `json:"current_arrival"`
}

// RawTrackingPing is the tolerant wire form of a tracking ping
type RawTrackingPing struct {
	Indicative  string        `json:"indicative"`
	LatRad      FlexibleField `json:"lat_rad"`
	LonRad      FlexibleField `json:"lon_rad"`
	FlightLevel FlexibleField `json:"flight_level"`
	GroundSpeed FlexibleField `json:"ground_speed"`
	Sequence    FlexibleField `json:"sequence"`
	ReceivedAt  string        `json:"received_at"`
}

// RawPacket is the tolerant wire form of an ingestion packet
type RawPacket struct {
	FlightIntentions []RawFlightIntention `json:"flight_intentions"`
	TrackingPings    []RawTrackingPing    `json:"tracking_pings"`
}

// Convert converts a raw packet into its typed form. Schema tolerance ends
// here; everything downstream sees typed values only.
func (r *RawPacket) Convert() (*Packet, error) {
	packet := &Packet{
		FlightIntentions: make([]FlightIntention, 0, len(r.FlightIntentions)),
		TrackingPings:    make([]TrackingPing, 0, len(r.TrackingPings)),
	}

	for i, raw := range r.FlightIntentions {
		planDate, err := ParseTimestamp(raw.FlightPlanDate)
		if err != nil {
			return nil, fmt.Errorf("intention %d: %w", i, err)
		}
		schedArrival, err := ParseTimestamp(raw.ScheduledArrival)
		if err != nil {
			return nil, fmt.Errorf("intention %d: %w", i, err)
		}
		currArrival, err := ParseTimestamp(raw.CurrentArrival)
		if err != nil {
			return nil, fmt.Errorf("intention %d: %w", i, err)
		}

		packet.FlightIntentions = append(packet.FlightIntentions, FlightIntention{
			PlanID:           raw.PlanID.Int64(),
			Indicative:       raw.Indicative,
			Origin:           raw.Origin,
			Destination:      raw.Destination,
			FlightPlanDate:   planDate,
			ScheduledArrival: schedArrival,
			CurrentArrival:   currArrival,
		})
	}

	for i, raw := range r.TrackingPings {
		receivedAt, err := ParseTimestamp(raw.ReceivedAt)
		if err != nil {
			return nil, fmt.Errorf("ping %d: %w", i, err)
		}

		packet.TrackingPings = append(packet.TrackingPings, TrackingPing{
			Indicative:  raw.Indicative,
			LatRad:      raw.LatRad.Float64(),
			LonRad:      raw.LonRad.Float64(),
			FlightLevel: raw.FlightLevel.Float64(),
			GroundSpeed: raw.GroundSpeed.Float64(),
			Sequence:    raw.Sequence.Int64(),
			ReceivedAt:  receivedAt,
		})
	}

	return packet, nil
}

// RawRouteElement is the tolerant wire form of one predicted route element
type RawRouteElement struct {
	ID           FlexibleField `json:"id"`
	LatDeg       FlexibleField `json:"lat_deg"`
	LonDeg       FlexibleField `json:"lon_deg"`
	AltitudeM    FlexibleField `json:"altitude_m"`
	SpeedKts     FlexibleField `json:"speed_kts"`
	EETMinutes   FlexibleField `json:"eet_minutes"`
	Type         string        `json:"type"`
	Interpolated FlexibleField `json:"interpolated"`
}

// RawPredictedFlight is the tolerant wire form of one predicted flight
type RawPredictedFlight struct {
	InstanceID    FlexibleField     `json:"instance_id"`
	Indicative    string            `json:"indicative"`
	Departure     string            `json:"departure"`
	Arrival       string            `json:"arrival"`
	TimeWindow    string            `json:"time_window"`
	RouteElements []RawRouteElement `json:"route_elements"`
}

// Convert converts a raw predicted flight into the typed domain form,
// computing the pairwise route segments from consecutive elements.
func (r *RawPredictedFlight) Convert() (*flight.PredictedFlight, error) {
	instanceID := r.InstanceID.Int64()
	if instanceID == 0 {
		return nil, fmt.Errorf("predicted flight missing instance_id")
	}

	p := &flight.PredictedFlight{
		InstanceID:    instanceID,
		Indicative:    r.Indicative,
		Departure:     r.Departure,
		Arrival:       r.Arrival,
		TimeWindow:    r.TimeWindow,
		RouteElements: make([]flight.RouteElement, 0, len(r.RouteElements)),
	}

	for i, raw := range r.RouteElements {
		id := raw.ID.Int64()
		if id == 0 {
			id = int64(i + 1)
		}
		p.RouteElements = append(p.RouteElements, flight.RouteElement{
			ID:           id,
			LatDeg:       raw.LatDeg.Float64(),
			LonDeg:       raw.LonDeg.Float64(),
			AltitudeM:    raw.AltitudeM.Float64(),
			SpeedKts:     raw.SpeedKts.Float64(),
			EETMinutes:   raw.EETMinutes.Float64(),
			Type:         raw.Type,
			Interpolated: raw.Interpolated.Bool(),
		})
	}

	p.Segments = flight.BuildSegments(p.RouteElements)

	return p, nil
}
