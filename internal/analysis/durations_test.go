package analysis

import (
	"testing"
	"time"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
)

func pairWith(first, last time.Time, window string, eets []float64) *flight.QualifiedPair {
	elements := make([]flight.RouteElement, len(eets))
	for i, eet := range eets {
		elements[i] = flight.RouteElement{ID: int64(i + 1), EETMinutes: eet}
	}
	fp := &flight.TrackingPoint{ReceivedAt: first}
	lp := &flight.TrackingPoint{ReceivedAt: last}
	return &flight.QualifiedPair{
		Real:       &flight.RealFlight{PlanID: 1, TrackingPoints: []flight.TrackingPoint{*fp, *lp}},
		Predicted:  &flight.PredictedFlight{InstanceID: 1, TimeWindow: window, RouteElements: elements},
		FirstPoint: fp,
		LastPoint:  lp,
	}
}

func TestExtractDurationsFromWindow(t *testing.T) {
	dep := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	arr := dep.Add(62 * time.Minute)
	window := "[2026-03-14T10:00:00Z, 2026-03-14T11:00:00Z]"

	dp, ok := ExtractDurations(pairWith(dep, arr, window, []float64{0, 30, 55}))
	if !ok {
		t.Fatal("ExtractDurations() = false, want true")
	}
	if dp.ActualMs != 62*60000 {
		t.Errorf("ActualMs = %d, want %d", dp.ActualMs, 62*60000)
	}
	if dp.PredictedMs != 60*60000 {
		t.Errorf("PredictedMs = %d, want %d (from window)", dp.PredictedMs, 60*60000)
	}
}

func TestExtractDurationsFallsBackToRouteEET(t *testing.T) {
	dep := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	arr := dep.Add(50 * time.Minute)

	tests := []struct {
		name   string
		window string
	}{
		{"empty window", ""},
		{"unbracketed window", "10:00 to 11:00"},
		{"single timestamp", "[2026-03-14T10:00:00Z]"},
		{"garbage timestamps", "[yesterday, today]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dp, ok := ExtractDurations(pairWith(dep, arr, tt.window, []float64{0, 20, 55}))
			if !ok {
				t.Fatal("ExtractDurations() = false, want fallback to route elapsed time")
			}
			if dp.PredictedMs != 55*60000 {
				t.Errorf("PredictedMs = %d, want %d (last minus first elapsed minutes)", dp.PredictedMs, 55*60000)
			}
		})
	}
}

func TestExtractDurationsExclusions(t *testing.T) {
	dep := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		pair *flight.QualifiedPair
	}{
		{
			name: "non-monotonic track timestamps",
			pair: pairWith(dep, dep.Add(-10*time.Minute), "", []float64{0, 55}),
		},
		{
			name: "zero timestamps",
			pair: pairWith(time.Time{}, time.Time{}, "", []float64{0, 55}),
		},
		{
			name: "no derivable predicted duration",
			pair: pairWith(dep, dep.Add(time.Hour), "", []float64{10, 10}),
		},
		{
			name: "single route element",
			pair: pairWith(dep, dep.Add(time.Hour), "", []float64{10}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ExtractDurations(tt.pair); ok {
				t.Error("ExtractDurations() = true, want exclusion")
			}
		})
	}
}

func TestExtractDurationsMissingBoundaryPoints(t *testing.T) {
	pair := pairWith(time.Now(), time.Now().Add(time.Hour), "", []float64{0, 55})
	pair.FirstPoint = nil
	if _, ok := ExtractDurations(pair); ok {
		t.Error("ExtractDurations() without boundary points should exclude the pair")
	}
}
