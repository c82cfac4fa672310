package ingest

import (
	"time"
)

// FlightIntention is one flight-plan record carried by an ingestion packet.
// A record with a nonzero plan id creates the flight on first sight and
// refreshes its schedule fields afterwards.
type FlightIntention struct {
	PlanID           int64     `json:"plan_id"`
	Indicative       string    `json:"indicative"`
	Origin           string    `json:"origin"`
	Destination      string    `json:"destination"`
	FlightPlanDate   time.Time `json:"flight_plan_date"`
	ScheduledArrival time.Time `json:"scheduled_arrival"`
	CurrentArrival   time.Time `json:"current_arrival"`
}

// TrackingPing is one raw surveillance position carried by an ingestion
// packet. It is keyed by call sign only; attachment to a concrete flight is
// the disambiguator's job.
type TrackingPing struct {
	Indicative  string    `json:"indicative"`
	LatRad      float64   `json:"lat_rad"`
	LonRad      float64   `json:"lon_rad"`
	FlightLevel float64   `json:"flight_level"`
	GroundSpeed float64   `json:"ground_speed"`
	Sequence    int64     `json:"sequence"`
	ReceivedAt  time.Time `json:"received_at"`
}

// Packet is one ingestion unit: zero-or-more flight intentions plus
// zero-or-more tracking pings
type Packet struct {
	FlightIntentions []FlightIntention `json:"flight_intentions"`
	TrackingPings    []TrackingPing    `json:"tracking_pings"`
}

// Result summarizes the processing of one packet
type Result struct {
	FlightsCreated  int    `json:"flights_created"`
	FlightsUpdated  int    `json:"flights_updated"`
	PointsAttached  int    `json:"points_attached"`
	PointsDiscarded int    `json:"points_discarded"`
	Message         string `json:"message"`
}

// Stats holds running ingestion totals since server start
type Stats struct {
	Packets         int64     `json:"packets"`
	FlightsCreated  int64     `json:"flights_created"`
	FlightsUpdated  int64     `json:"flights_updated"`
	PointsAttached  int64     `json:"points_attached"`
	PointsDiscarded int64     `json:"points_discarded"`
	LastPacketAt    time.Time `json:"last_packet_at"`
}
