package analysis

import (
	"sort"
	"testing"
	"time"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/geo"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/match"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

type memoryStore struct {
	flights   map[int64]*flight.RealFlight
	predicted map[int64]*flight.PredictedFlight
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		flights:   make(map[int64]*flight.RealFlight),
		predicted: make(map[int64]*flight.PredictedFlight),
	}
}

func (s *memoryStore) FindFlightByKey(planID int64) (*flight.RealFlight, error) {
	return s.flights[planID], nil
}
func (s *memoryStore) UpsertFlight(f *flight.RealFlight) error {
	s.flights[f.PlanID] = f
	return nil
}
func (s *memoryStore) FindPredictedByKey(instanceID int64) (*flight.PredictedFlight, error) {
	return s.predicted[instanceID], nil
}
func (s *memoryStore) UpsertPredicted(p *flight.PredictedFlight) error {
	s.predicted[p.InstanceID] = p
	return nil
}
func (s *memoryStore) ListAllFlightKeys() ([]int64, error) {
	keys := make([]int64, 0, len(s.flights))
	for k := range s.flights {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}
func (s *memoryStore) ListAllPredictedKeys() ([]int64, error) {
	keys := make([]int64, 0, len(s.predicted))
	for k := range s.predicted {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

// seedMatchedFlight stores a predicted/real pair that passes qualification,
// with a one-hour predicted window and the given actual duration
func seedMatchedFlight(store *memoryStore, id int64, actual time.Duration) {
	dep := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	store.predicted[id] = &flight.PredictedFlight{
		InstanceID: id,
		Indicative: "TAM100",
		Departure:  "SBSP",
		Arrival:    "SBRJ",
		TimeWindow: "[2026-03-14T10:00:00Z, 2026-03-14T11:00:00Z]",
		RouteElements: []flight.RouteElement{
			{ID: 1, LatDeg: -23.6273, LonDeg: -46.6566, Type: flight.ElementTypeAerodrome},
			{ID: 2, LatDeg: -23.3, LonDeg: -45.0, AltitudeM: 9000, EETMinutes: 30, Type: flight.ElementTypeWaypoint},
			{ID: 3, LatDeg: -22.9105, LonDeg: -43.1631, EETMinutes: 60, Type: flight.ElementTypeAerodrome},
		},
	}

	store.flights[id] = &flight.RealFlight{
		PlanID:     id,
		Indicative: "TAM100",
		TrackingPoints: []flight.TrackingPoint{
			{LatRad: geo.DegToRad(-23.6273), LonRad: geo.DegToRad(-46.6566), FlightLevel: 1, ReceivedAt: dep},
			{LatRad: geo.DegToRad(-23.3), LonRad: geo.DegToRad(-45.0), FlightLevel: 300, ReceivedAt: dep.Add(actual / 2)},
			{LatRad: geo.DegToRad(-22.9105), LonRad: geo.DegToRad(-43.1631), FlightLevel: 1, ReceivedAt: dep.Add(actual)},
		},
	}
}

func newTestAnalysisService(store *memoryStore) *Service {
	log := logger.NewNop()
	matcher := match.NewMatcher(match.Config{
		MaxDistanceNM:  2.0,
		MaxFlightLevel: 4.0,
	}, log)
	return NewService(store, matcher,
		NewPunctualityAnalyzer([]int{3, 5, 15}, log),
		NewAccuracyAnalyzer(log),
		nil, log)
}

func TestRunPunctualityAnalysis(t *testing.T) {
	store := newMemoryStore()
	seedMatchedFlight(store, 1, 62*time.Minute) // 2 min late
	seedMatchedFlight(store, 2, 70*time.Minute) // 10 min late
	// A predicted flight without a real counterpart is rejected, not analyzed
	store.predicted[3] = &flight.PredictedFlight{
		InstanceID: 3,
		Departure:  "SBSP",
		Arrival:    "SBRJ",
		RouteElements: []flight.RouteElement{
			{ID: 1, LatDeg: -23.6273, LonDeg: -46.6566, Type: flight.ElementTypeAerodrome},
			{ID: 2, LatDeg: -22.9105, LonDeg: -43.1631, Type: flight.ElementTypeAerodrome},
		},
	}

	svc := newTestAnalysisService(store)
	report, err := svc.RunPunctualityAnalysis()
	if err != nil {
		t.Fatalf("RunPunctualityAnalysis() error = %v", err)
	}

	q := report.Qualification
	if q.TotalPredicted != 3 || q.Qualified != 2 {
		t.Fatalf("qualification = %d of %d, want 2 of 3 (rejections %v)",
			q.Qualified, q.TotalPredicted, q.Rejections)
	}
	if q.Rejections[match.ReasonNoRealFlight] != 1 {
		t.Errorf("Rejections = %v, want one NO_REAL_FLIGHT", q.Rejections)
	}

	r := report.Result
	if r.TotalAnalyzed != 2 {
		t.Fatalf("TotalAnalyzed = %d, want 2", r.TotalAnalyzed)
	}
	// Deltas of 2 and 10 minutes: counts 1, 1, 2 across the 3/5/15 windows
	wantCounts := []int{1, 1, 2}
	for i, w := range r.Windows {
		if w.Count != wantCounts[i] {
			t.Errorf("window %d min: count = %d, want %d", w.WindowMinutes, w.Count, wantCounts[i])
		}
	}
}

func TestRunAccuracyAnalysis(t *testing.T) {
	store := newMemoryStore()
	seedMatchedFlight(store, 1, 60*time.Minute)

	svc := newTestAnalysisService(store)
	report, err := svc.RunAccuracyAnalysis()
	if err != nil {
		t.Fatalf("RunAccuracyAnalysis() error = %v", err)
	}

	if report.Qualification.Qualified != 1 {
		t.Fatalf("Qualified = %d, want 1", report.Qualification.Qualified)
	}
	if report.Result.Analyzed != 1 {
		t.Fatalf("Analyzed = %d, want 1", report.Result.Analyzed)
	}
	// Track and route coincide horizontally; vertical error is dominated by
	// the cruise point (FL300 = 9144 m against a 9000 m prediction)
	if report.Result.HorizontalRMSEM > 1e-6 {
		t.Errorf("HorizontalRMSEM = %v, want ~0 for a coincident track", report.Result.HorizontalRMSEM)
	}
	if report.Result.VerticalRMSEM <= 0 {
		t.Errorf("VerticalRMSEM = %v, want positive", report.Result.VerticalRMSEM)
	}
}

func TestAnalysesShareQualification(t *testing.T) {
	store := newMemoryStore()
	seedMatchedFlight(store, 1, 61*time.Minute)
	seedMatchedFlight(store, 2, 65*time.Minute)

	svc := newTestAnalysisService(store)

	p, err := svc.RunPunctualityAnalysis()
	if err != nil {
		t.Fatalf("RunPunctualityAnalysis() error = %v", err)
	}
	a, err := svc.RunAccuracyAnalysis()
	if err != nil {
		t.Fatalf("RunAccuracyAnalysis() error = %v", err)
	}

	if p.Qualification.Qualified != a.Qualification.Qualified {
		t.Errorf("qualified counts diverge between reports: %d vs %d",
			p.Qualification.Qualified, a.Qualification.Qualified)
	}
}
