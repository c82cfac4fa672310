// Package densify expands sparse predicted routes toward a target point
// count. New points are distributed across segments proportionally to each
// segment's share of estimated elapsed time, since tracking density in the
// real data is driven by time, not distance. Point generation prefers the
// external trajectory simulator and degrades to linear interpolation per
// point.
package densify

import (
	"context"
	"fmt"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// Operation result statuses
const (
	StatusSuccess        = "SUCCESS"
	StatusNoActionNeeded = "NO_ACTION_NEEDED"
	StatusNotFound       = "NOT_FOUND"
	StatusError          = "ERROR"
)

// Outcome records the result of densifying one predicted flight
type Outcome struct {
	InstanceID            int64   `json:"instance_id"`
	Status                string  `json:"status"`
	OriginalCount         int     `json:"original_count"`
	AchievedCount         int     `json:"achieved_count"`
	TargetCount           int     `json:"target_count"`
	SimulatedPoints       int     `json:"simulated_points"`
	LinearPoints          int     `json:"linear_points"`
	SimulationSuccessRate float64 `json:"simulation_success_rate"`
	Message               string  `json:"message,omitempty"`
}

// Densifier expands predicted routes using a primary simulator with a
// deterministic linear fallback. The primary may be nil, in which case every
// point is generated linearly.
type Densifier struct {
	primary Simulator
	logger  *logger.Logger
}

// NewDensifier creates a densifier. primary may be nil.
func NewDensifier(primary Simulator, log *logger.Logger) *Densifier {
	return &Densifier{
		primary: primary,
		logger:  log.Named("densifier"),
	}
}

// Densify expands the flight's route in place toward targetCount elements
// and rebuilds its segments. The achieved count may fall short of the target
// by per-segment rounding remainders; the outcome reports achieved vs. target
// rather than forcing an exact match.
func (d *Densifier) Densify(ctx context.Context, p *flight.PredictedFlight, targetCount int) *Outcome {
	original := len(p.RouteElements)
	outcome := &Outcome{
		InstanceID:    p.InstanceID,
		OriginalCount: original,
		AchievedCount: original,
		TargetCount:   targetCount,
	}

	if original >= targetCount {
		outcome.Status = StatusNoActionNeeded
		outcome.Message = fmt.Sprintf("route already has %d elements (target %d)", original, targetCount)
		return outcome
	}
	if original < 2 {
		outcome.Status = StatusNoActionNeeded
		outcome.Message = "route has no segments to densify"
		return outcome
	}

	toInsert := targetCount - original
	counts := distributePoints(p.RouteElements, toInsert)

	expanded := make([]flight.RouteElement, 0, targetCount)
	for i := 0; i < original-1; i++ {
		start := p.RouteElements[i]
		end := p.RouteElements[i+1]
		expanded = append(expanded, start)

		k := counts[i]
		if k == 0 {
			continue
		}

		points, simulated := d.generateSegment(ctx, p, start, end, k)
		outcome.SimulatedPoints += simulated
		outcome.LinearPoints += k - simulated
		expanded = append(expanded, points...)
	}
	expanded = append(expanded, p.RouteElements[original-1])

	assignElementIDs(expanded)
	p.RouteElements = expanded
	p.Segments = flight.BuildSegments(expanded)

	outcome.AchievedCount = len(expanded)
	outcome.Status = StatusSuccess
	if total := outcome.SimulatedPoints + outcome.LinearPoints; total > 0 {
		outcome.SimulationSuccessRate = float64(outcome.SimulatedPoints) / float64(total) * 100
	}
	outcome.Message = fmt.Sprintf("expanded %d -> %d elements (target %d)",
		original, outcome.AchievedCount, targetCount)

	d.logger.Debug("Densified route",
		logger.Int64("instance_id", p.InstanceID),
		logger.Int("original", original),
		logger.Int("achieved", outcome.AchievedCount),
		logger.Int("simulated", outcome.SimulatedPoints),
		logger.Int("linear", outcome.LinearPoints))

	return outcome
}

// distributePoints splits toInsert new points across the route's segments
// proportionally to each segment's estimated-elapsed-time span. Fractional
// shares truncate, so the distributed total may fall short of toInsert. When
// the route carries no usable time spans the points spread evenly instead.
func distributePoints(elements []flight.RouteElement, toInsert int) []int {
	segments := len(elements) - 1
	counts := make([]int, segments)

	spans := make([]float64, segments)
	var totalSpan float64
	for i := 0; i < segments; i++ {
		span := elements[i+1].EETMinutes - elements[i].EETMinutes
		if span < 0 {
			span = 0
		}
		spans[i] = span
		totalSpan += span
	}

	if totalSpan <= 0 {
		for i := range counts {
			counts[i] = toInsert / segments
		}
		return counts
	}

	for i := range counts {
		counts[i] = int(float64(toInsert) * spans[i] / totalSpan)
	}
	return counts
}

// generateSegment produces k intermediate points for one segment, preferring
// the simulator and filling any shortfall with linear interpolation. Returns
// the points and how many came from the simulator.
func (d *Densifier) generateSegment(ctx context.Context, p *flight.PredictedFlight, start, end flight.RouteElement, k int) ([]flight.RouteElement, int) {
	var simPoints []flight.RouteElement
	if d.primary != nil {
		points, err := d.primary.Simulate(ctx, p, start, end, k)
		if err != nil {
			d.logger.Debug("Simulator failed for segment, using linear fallback",
				logger.Int64("instance_id", p.InstanceID),
				logger.Error(err))
		} else {
			simPoints = points
		}
	}

	out := make([]flight.RouteElement, 0, k)
	simulated := 0
	for j := 1; j <= k; j++ {
		fraction := float64(j) / float64(k+1)

		if j <= len(simPoints) {
			e := simPoints[j-1]
			e.Interpolated = true
			// Keep the elapsed time consistent with the point's
			// fractional position regardless of what the simulator
			// reported
			e.EETMinutes = start.EETMinutes + (end.EETMinutes-start.EETMinutes)*fraction
			out = append(out, e)
			simulated++
			continue
		}

		out = append(out, linearPoint(start, end, fraction))
	}

	return out, simulated
}

// assignElementIDs renumbers the expanded route sequentially so inserted
// elements get stable identifiers
func assignElementIDs(elements []flight.RouteElement) {
	for i := range elements {
		elements[i].ID = int64(i + 1)
	}
}
