package sqlite

import (
	"testing"
	"time"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

func newTestStorage(t *testing.T) *FlightStorage {
	t.Helper()
	s, err := NewFlightStorage(":memory:", 2000, logger.NewNop())
	if err != nil {
		t.Fatalf("NewFlightStorage() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ts(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
}

func TestFlightRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	f := &flight.RealFlight{
		PlanID:           1,
		Indicative:       "TAM100",
		Origin:           "SBSP",
		Destination:      "SBRJ",
		FlightPlanDate:   ts(10, 0),
		ScheduledArrival: ts(10, 55),
		CurrentArrival:   ts(11, 0),
		TrackingPoints: []flight.TrackingPoint{
			{LatRad: -0.41, LonRad: -0.81, FlightLevel: 2, GroundSpeed: 150, Sequence: 7, ReceivedAt: ts(10, 5)},
			{LatRad: -0.40, LonRad: -0.80, FlightLevel: 30, GroundSpeed: 420, Sequence: 8, ReceivedAt: ts(10, 30)},
		},
	}

	if err := s.UpsertFlight(f); err != nil {
		t.Fatalf("UpsertFlight() error = %v", err)
	}

	got, err := s.FindFlightByKey(1)
	if err != nil {
		t.Fatalf("FindFlightByKey() error = %v", err)
	}
	if got == nil {
		t.Fatal("FindFlightByKey() = nil, want flight")
	}

	if got.Indicative != "TAM100" || got.Origin != "SBSP" || got.Destination != "SBRJ" {
		t.Errorf("identity fields = %q %q %q", got.Indicative, got.Origin, got.Destination)
	}
	if !got.CurrentArrival.Equal(ts(11, 0)) {
		t.Errorf("CurrentArrival = %v, want %v", got.CurrentArrival, ts(11, 0))
	}
	if got.TrackingPointCount != 2 || len(got.TrackingPoints) != 2 {
		t.Fatalf("tracking points = %d (count %d), want 2", len(got.TrackingPoints), got.TrackingPointCount)
	}

	// Attachment order and payload survive the round trip
	p := got.TrackingPoints[0]
	if p.Sequence != 7 || p.LatRad != -0.41 || p.FlightLevel != 2 || !p.ReceivedAt.Equal(ts(10, 5)) {
		t.Errorf("first point = %+v", p)
	}
	if got.TrackingPoints[1].Sequence != 8 {
		t.Errorf("second point sequence = %d, want 8", got.TrackingPoints[1].Sequence)
	}
}

func TestFindFlightByKeyNotFound(t *testing.T) {
	s := newTestStorage(t)

	got, err := s.FindFlightByKey(42)
	if err != nil {
		t.Fatalf("FindFlightByKey() error = %v", err)
	}
	if got != nil {
		t.Errorf("FindFlightByKey() = %+v, want nil for an absent key", got)
	}
}

func TestUpsertFlightReplacesRecord(t *testing.T) {
	s := newTestStorage(t)

	f := &flight.RealFlight{
		PlanID:         1,
		Indicative:     "TAM100",
		CurrentArrival: ts(11, 0),
		TrackingPoints: []flight.TrackingPoint{
			{Sequence: 1, ReceivedAt: ts(10, 5)},
		},
	}
	if err := s.UpsertFlight(f); err != nil {
		t.Fatalf("UpsertFlight() error = %v", err)
	}

	// Last write wins: the revised arrival and the extended track replace
	// the previous row wholesale
	f.CurrentArrival = ts(11, 20)
	f.TrackingPoints = append(f.TrackingPoints, flight.TrackingPoint{Sequence: 2, ReceivedAt: ts(10, 30)})
	if err := s.UpsertFlight(f); err != nil {
		t.Fatalf("UpsertFlight() error = %v", err)
	}

	got, err := s.FindFlightByKey(1)
	if err != nil || got == nil {
		t.Fatalf("FindFlightByKey() = %v, %v", got, err)
	}
	if !got.CurrentArrival.Equal(ts(11, 20)) {
		t.Errorf("CurrentArrival = %v, want %v", got.CurrentArrival, ts(11, 20))
	}
	if len(got.TrackingPoints) != 2 {
		t.Errorf("tracking points = %d, want 2", len(got.TrackingPoints))
	}

	keys, err := s.ListAllFlightKeys()
	if err != nil {
		t.Fatalf("ListAllFlightKeys() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != 1 {
		t.Errorf("keys = %v, want [1]", keys)
	}
}

func TestPredictedRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	p := &flight.PredictedFlight{
		InstanceID: 9,
		Indicative: "TAM100",
		Departure:  "SBSP",
		Arrival:    "SBRJ",
		TimeWindow: "[2026-03-14T10:00:00Z, 2026-03-14T11:00:00Z]",
		RouteElements: []flight.RouteElement{
			{ID: 1, LatDeg: -23.6273, LonDeg: -46.6566, Type: flight.ElementTypeAerodrome},
			{ID: 2, LatDeg: -23.3, LonDeg: -45.2, AltitudeM: 9000, SpeedKts: 430, EETMinutes: 8, Type: flight.ElementTypeWaypoint, Interpolated: true, MagTrackDeg: 78.5},
			{ID: 3, LatDeg: -22.9105, LonDeg: -43.1631, EETMinutes: 20, Type: flight.ElementTypeAerodrome},
		},
		Segments: []flight.RouteSegment{
			{FromID: 1, ToID: 2, DistanceNM: 82.1},
			{FromID: 2, ToID: 3, DistanceNM: 115.4},
		},
	}

	if err := s.UpsertPredicted(p); err != nil {
		t.Fatalf("UpsertPredicted() error = %v", err)
	}

	got, err := s.FindPredictedByKey(9)
	if err != nil {
		t.Fatalf("FindPredictedByKey() error = %v", err)
	}
	if got == nil {
		t.Fatal("FindPredictedByKey() = nil, want flight")
	}

	if got.TimeWindow != p.TimeWindow || got.Departure != "SBSP" {
		t.Errorf("fields = window %q departure %q", got.TimeWindow, got.Departure)
	}
	if len(got.RouteElements) != 3 {
		t.Fatalf("route elements = %d, want 3", len(got.RouteElements))
	}

	e := got.RouteElements[1]
	if e.ID != 2 || e.AltitudeM != 9000 || e.EETMinutes != 8 || !e.Interpolated || e.MagTrackDeg != 78.5 {
		t.Errorf("middle element = %+v", e)
	}
	if got.RouteElements[0].Interpolated {
		t.Error("aerodrome element should not be flagged interpolated")
	}

	if len(got.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(got.Segments))
	}
	if got.Segments[0].FromID != 1 || got.Segments[0].ToID != 2 || got.Segments[0].DistanceNM != 82.1 {
		t.Errorf("first segment = %+v", got.Segments[0])
	}

	keys, err := s.ListAllPredictedKeys()
	if err != nil {
		t.Fatalf("ListAllPredictedKeys() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != 9 {
		t.Errorf("keys = %v, want [9]", keys)
	}
}

func TestUpsertPredictedReplacesRoute(t *testing.T) {
	s := newTestStorage(t)

	p := &flight.PredictedFlight{
		InstanceID: 9,
		RouteElements: []flight.RouteElement{
			{ID: 1, LatDeg: -23.6, LonDeg: -46.6, Type: flight.ElementTypeAerodrome},
			{ID: 2, LatDeg: -22.9, LonDeg: -43.1, Type: flight.ElementTypeAerodrome},
		},
	}
	if err := s.UpsertPredicted(p); err != nil {
		t.Fatalf("UpsertPredicted() error = %v", err)
	}

	// A densified route replaces the stored elements wholesale
	p.RouteElements = []flight.RouteElement{
		{ID: 1, LatDeg: -23.6, LonDeg: -46.6, Type: flight.ElementTypeAerodrome},
		{ID: 2, LatDeg: -23.2, LonDeg: -44.8, Type: flight.ElementTypeWaypoint, Interpolated: true},
		{ID: 3, LatDeg: -22.9, LonDeg: -43.1, Type: flight.ElementTypeAerodrome},
	}
	p.Segments = flight.BuildSegments(p.RouteElements)
	if err := s.UpsertPredicted(p); err != nil {
		t.Fatalf("UpsertPredicted() error = %v", err)
	}

	got, err := s.FindPredictedByKey(9)
	if err != nil || got == nil {
		t.Fatalf("FindPredictedByKey() = %v, %v", got, err)
	}
	if len(got.RouteElements) != 3 {
		t.Errorf("route elements = %d, want 3 after replacement", len(got.RouteElements))
	}
	if len(got.Segments) != 2 {
		t.Errorf("segments = %d, want 2 after replacement", len(got.Segments))
	}
}
