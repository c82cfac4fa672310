// Package match pairs predicted routes with real flights and applies the
// route, endpoint-type, and ground-proximity validation that both the
// punctuality and accuracy analyzers share. Qualification is a pure function
// of its inputs so the two reports always see the same flight set.
package match

import (
	"fmt"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/geo"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// Reason identifies why a predicted flight failed qualification
type Reason string

const (
	ReasonNotRouteMatch    Reason = "NOT_ROUTE_MATCH"
	ReasonNoRealFlight     Reason = "NO_REAL_FLIGHT"
	ReasonDistanceExceeded Reason = "DISTANCE_EXCEEDED"
	ReasonAltitudeExceeded Reason = "ALTITUDE_EXCEEDED"
)

// Config contains the qualification thresholds. It is passed in explicitly so
// tests can vary thresholds per case.
type Config struct {
	// RoutePairs lists qualifying [start, end] airport pairs, matched in
	// either direction. An empty list admits every route.
	RoutePairs [][]string

	// MaxDistanceNM is the maximum distance between a boundary tracking
	// point and its declared aerodrome.
	MaxDistanceNM float64

	// MaxFlightLevel is the maximum flight level for boundary tracking
	// points; it encodes "close to the ground near the airport".
	MaxFlightLevel float64
}

// Result is the outcome of one qualification run
type Result struct {
	Pairs          []flight.QualifiedPair `json:"-"`
	TotalPredicted int                    `json:"total_predicted"`
	Qualified      int                    `json:"qualified"`
	Rejections     map[Reason]int         `json:"rejections"`
}

// FlightLookup resolves a plan id to a real flight; nil means not found
type FlightLookup func(planID int64) (*flight.RealFlight, error)

// Matcher qualifies predicted flights against real flights
type Matcher struct {
	cfg    Config
	logger *logger.Logger
}

// NewMatcher creates a matcher with the given thresholds
func NewMatcher(cfg Config, log *logger.Logger) *Matcher {
	return &Matcher{
		cfg:    cfg,
		logger: log.Named("matcher"),
	}
}

// Qualify runs the three-step pipeline over the predicted flights: route and
// aerodrome-anchoring filter, identity match on plan id, then geographic and
// altitude validation of the real flight's boundary points against the
// declared aerodromes. Lookup errors abort the run; everything else is a
// counted rejection.
func (m *Matcher) Qualify(predicted []*flight.PredictedFlight, lookup FlightLookup) (*Result, error) {
	result := &Result{
		TotalPredicted: len(predicted),
		Rejections:     make(map[Reason]int),
	}

	for _, p := range predicted {
		pair, reason, err := m.qualifyOne(p, lookup)
		if err != nil {
			return nil, err
		}
		if pair == nil {
			result.Rejections[reason]++
			m.logger.Debug("Predicted flight rejected",
				logger.Int64("instance_id", p.InstanceID),
				logger.String("reason", string(reason)))
			continue
		}
		result.Pairs = append(result.Pairs, *pair)
	}

	result.Qualified = len(result.Pairs)

	m.logger.Info("Qualification run complete",
		logger.Int("predicted", result.TotalPredicted),
		logger.Int("qualified", result.Qualified))

	return result, nil
}

func (m *Matcher) qualifyOne(p *flight.PredictedFlight, lookup FlightLookup) (*flight.QualifiedPair, Reason, error) {
	// Step 1: route filter. The route must join a configured airport pair
	// and be anchored at aerodromes on both ends, not arbitrary fixes.
	departure := p.DepartureElement()
	arrival := p.ArrivalElement()
	if departure == nil || arrival == nil || !m.routeQualifies(p.Departure, p.Arrival) {
		return nil, ReasonNotRouteMatch, nil
	}

	// Step 2: identity match on plan id
	real, err := lookup(p.InstanceID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up flight %d: %w", p.InstanceID, err)
	}
	if real == nil {
		return nil, ReasonNoRealFlight, nil
	}

	// A flight without tracking points has no usable real track to
	// validate against
	first := real.FirstTrackingPoint()
	last := real.LastTrackingPoint()
	if first == nil || last == nil {
		return nil, ReasonNoRealFlight, nil
	}

	// Step 3: ground-proximity validation. Both boundary points must sit
	// within the distance threshold of their declared aerodrome and below
	// the flight-level ceiling, so cruise-altitude overflights of the
	// airport never pass for departures or arrivals.
	depDistance := geo.HaversineNM(
		geo.RadToDeg(first.LatRad), geo.RadToDeg(first.LonRad),
		departure.LatDeg, departure.LonDeg)
	arrDistance := geo.HaversineNM(
		geo.RadToDeg(last.LatRad), geo.RadToDeg(last.LonRad),
		arrival.LatDeg, arrival.LonDeg)

	if depDistance > m.cfg.MaxDistanceNM || arrDistance > m.cfg.MaxDistanceNM {
		return nil, ReasonDistanceExceeded, nil
	}

	if first.FlightLevel > m.cfg.MaxFlightLevel || last.FlightLevel > m.cfg.MaxFlightLevel {
		return nil, ReasonAltitudeExceeded, nil
	}

	return &flight.QualifiedPair{
		Real:          real,
		Predicted:     p,
		FirstPoint:    first,
		LastPoint:     last,
		DepartureElem: departure,
		ArrivalElem:   arrival,
	}, "", nil
}

// routeQualifies reports whether the endpoint pair matches a configured
// route pair in either direction
func (m *Matcher) routeQualifies(start, end string) bool {
	if len(m.cfg.RoutePairs) == 0 {
		return true
	}
	for _, pair := range m.cfg.RoutePairs {
		if len(pair) != 2 {
			continue
		}
		if (pair[0] == start && pair[1] == end) || (pair[0] == end && pair[1] == start) {
			return true
		}
	}
	return false
}
