package ingest

import (
	"time"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// Disambiguator resolves a tracking ping to the correct flight among
// candidates sharing its call sign, by time-window containment. A flight's
// matching window runs from its flight plan date to its current arrival time
// plus the configured tolerance.
type Disambiguator struct {
	tolerance time.Duration
	logger    *logger.Logger
}

// NewDisambiguator creates a disambiguator with the given attachment
// tolerance in minutes
func NewDisambiguator(toleranceMinutes int, log *logger.Logger) *Disambiguator {
	return &Disambiguator{
		tolerance: time.Duration(toleranceMinutes) * time.Minute,
		logger:    log.Named("disambiguator"),
	}
}

// Attach resolves the ping timestamp against the candidate flights and
// returns the chosen flight's plan id. The second return value is false when
// no candidate's window contains the timestamp; such points are discarded
// rather than guessed, to prevent cross-flight contamination.
//
// When several windows contain the timestamp, the candidate whose window end
// is closest to the timestamp wins; window ends never precede the timestamp
// for eligible candidates, so this picks the flight least likely to be stale.
// Ties on window end break on the lower plan id so the result does not depend
// on candidate ordering.
func (d *Disambiguator) Attach(at time.Time, candidates []*flight.RealFlight) (int64, bool) {
	var best *flight.RealFlight
	var bestEnd time.Time

	for _, c := range candidates {
		windowEnd := c.CurrentArrival.Add(d.tolerance)
		if at.Before(c.FlightPlanDate) || at.After(windowEnd) {
			continue
		}

		if best == nil || windowEnd.Before(bestEnd) ||
			(windowEnd.Equal(bestEnd) && c.PlanID < best.PlanID) {
			best = c
			bestEnd = windowEnd
		}
	}

	if best == nil {
		d.logger.Debug("Discarding tracking point outside all candidate windows",
			logger.Time("timestamp", at),
			logger.Int("candidates", len(candidates)))
		return 0, false
	}

	return best.PlanID, true
}
