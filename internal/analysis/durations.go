package analysis

import (
	"strings"
	"time"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
)

// DurationPair holds the predicted and actual flight durations for one
// qualified pair
type DurationPair struct {
	PlanID      int64 `json:"plan_id"`
	PredictedMs int64 `json:"predicted_ms"`
	ActualMs    int64 `json:"actual_ms"`
}

// Window timestamp layouts accepted inside bracketed predicted-time windows
var windowLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ExtractDurations derives the actual and predicted durations for one
// qualified pair. The actual duration spans the validated first and last
// tracking points selected during qualification. The predicted duration
// comes from the bracketed time-window string, or, when that is
// unparseable, from the route's cumulative estimated elapsed time.
//
// Returns false when the actual timestamps are missing or non-monotonic, or
// when no positive predicted duration can be derived; such pairs are
// excluded from punctuality analysis and counted by the caller.
func ExtractDurations(pair *flight.QualifiedPair) (*DurationPair, bool) {
	if pair.FirstPoint == nil || pair.LastPoint == nil {
		return nil, false
	}

	departure := pair.FirstPoint.ReceivedAt
	arrival := pair.LastPoint.ReceivedAt
	if departure.IsZero() || arrival.IsZero() || arrival.Before(departure) {
		return nil, false
	}
	actualMs := arrival.Sub(departure).Milliseconds()

	predictedMs := parseWindowDurationMs(pair.Predicted.TimeWindow)
	if predictedMs <= 0 {
		predictedMs = routeEETDurationMs(pair.Predicted.RouteElements)
	}
	if predictedMs <= 0 {
		return nil, false
	}

	return &DurationPair{
		PlanID:      pair.Real.PlanID,
		PredictedMs: predictedMs,
		ActualMs:    actualMs,
	}, true
}

// parseWindowDurationMs parses a bracketed "[start, end]" predicted time
// window and returns its span in milliseconds, or 0 when the string is
// unparseable or non-positive
func parseWindowDurationMs(window string) int64 {
	trimmed := strings.TrimSpace(window)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return 0
	}
	trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, "["), "]")

	parts := strings.SplitN(trimmed, ",", 2)
	if len(parts) != 2 {
		return 0
	}

	start, ok := parseWindowTimestamp(parts[0])
	if !ok {
		return 0
	}
	end, ok := parseWindowTimestamp(parts[1])
	if !ok {
		return 0
	}
	if !end.After(start) {
		return 0
	}

	return end.Sub(start).Milliseconds()
}

func parseWindowTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range windowLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// routeEETDurationMs derives the predicted duration from the route's
// cumulative estimated-elapsed-time values
func routeEETDurationMs(elements []flight.RouteElement) int64 {
	if len(elements) < 2 {
		return 0
	}
	minutes := elements[len(elements)-1].EETMinutes - elements[0].EETMinutes
	if minutes <= 0 {
		return 0
	}
	return int64(minutes * 60000)
}
