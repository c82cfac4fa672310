package flight

// Storage is the narrow persistence contract consumed by the ingestion and
// analysis services. Implementations provide keyed lookup, keyed upsert, and
// key listing only - no richer query semantics are assumed. Upserts are
// atomic per record; two concurrent upserts for the same key are
// last-write-wins (accepted limitation, not worked around here).
type Storage interface {
	// FindFlightByKey returns the flight with the given plan id, or nil if
	// no such flight exists.
	FindFlightByKey(planID int64) (*RealFlight, error)

	// UpsertFlight creates or replaces the flight record and its tracking
	// points under the flight's plan id.
	UpsertFlight(f *RealFlight) error

	// FindPredictedByKey returns the predicted flight with the given
	// instance id, or nil if no such record exists.
	FindPredictedByKey(instanceID int64) (*PredictedFlight, error)

	// UpsertPredicted creates or replaces the predicted flight record and
	// its route elements under the record's instance id.
	UpsertPredicted(p *PredictedFlight) error

	// ListAllFlightKeys returns the plan ids of all stored flights.
	ListAllFlightKeys() ([]int64, error)

	// ListAllPredictedKeys returns the instance ids of all stored
	// predicted flights.
	ListAllPredictedKeys() ([]int64, error)
}
