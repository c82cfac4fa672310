package analysis

import (
	"testing"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

func minutesPair(planID int64, predictedMin, actualMin float64) DurationPair {
	return DurationPair{
		PlanID:      planID,
		PredictedMs: int64(predictedMin * 60000),
		ActualMs:    int64(actualMin * 60000),
	}
}

func TestPunctualityWindowsAreCumulative(t *testing.T) {
	a := NewPunctualityAnalyzer([]int{3, 5, 15}, logger.NewNop())

	// Deltas of 2, 4, and 10 minutes
	pairs := []DurationPair{
		minutesPair(1, 60, 62),
		minutesPair(2, 60, 56),
		minutesPair(3, 60, 70),
	}

	result := a.Analyze(pairs, 5)

	if result.TotalMatched != 5 || result.TotalAnalyzed != 3 {
		t.Fatalf("totals = matched %d, analyzed %d, want 5, 3", result.TotalMatched, result.TotalAnalyzed)
	}
	if len(result.Windows) != 3 {
		t.Fatalf("windows = %d, want 3", len(result.Windows))
	}

	wantCounts := []int{1, 2, 3}
	wantPercentages := []float64{33.3, 66.7, 100}
	for i, w := range result.Windows {
		if w.Count != wantCounts[i] {
			t.Errorf("window %d min: count = %d, want %d", w.WindowMinutes, w.Count, wantCounts[i])
		}
		if w.Percentage != wantPercentages[i] {
			t.Errorf("window %d min: percentage = %v, want %v", w.WindowMinutes, w.Percentage, wantPercentages[i])
		}
	}
}

func TestPunctualityBoundaryInclusive(t *testing.T) {
	a := NewPunctualityAnalyzer([]int{3}, logger.NewNop())

	// Delta of exactly 3 minutes counts inside the 3-minute window
	result := a.Analyze([]DurationPair{minutesPair(1, 60, 63)}, 1)
	if result.Windows[0].Count != 1 {
		t.Errorf("count = %d, want 1 for a delta exactly on the window boundary", result.Windows[0].Count)
	}
}

func TestPunctualityDeltaSignIrrelevant(t *testing.T) {
	a := NewPunctualityAnalyzer([]int{5}, logger.NewNop())

	early := a.Analyze([]DurationPair{minutesPair(1, 60, 56)}, 1)
	late := a.Analyze([]DurationPair{minutesPair(1, 60, 64)}, 1)
	if early.Windows[0].Count != 1 || late.Windows[0].Count != 1 {
		t.Error("early and late deltas of equal magnitude should classify identically")
	}
}

func TestPunctualityNoPairs(t *testing.T) {
	a := NewPunctualityAnalyzer([]int{3, 5, 15}, logger.NewNop())
	result := a.Analyze(nil, 0)

	for _, w := range result.Windows {
		if w.Count != 0 || w.Percentage != 0 {
			t.Errorf("window %d min: got count %d percentage %v, want zeros", w.WindowMinutes, w.Count, w.Percentage)
		}
	}
}
