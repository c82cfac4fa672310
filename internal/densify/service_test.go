package densify

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// fakeStore is an in-memory flight.Storage; failKeys simulates per-flight
// store failures
type fakeStore struct {
	predicted map[int64]*flight.PredictedFlight
	failKeys  map[int64]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		predicted: make(map[int64]*flight.PredictedFlight),
		failKeys:  make(map[int64]bool),
	}
}

func (s *fakeStore) FindFlightByKey(planID int64) (*flight.RealFlight, error) { return nil, nil }
func (s *fakeStore) UpsertFlight(f *flight.RealFlight) error                  { return nil }
func (s *fakeStore) ListAllFlightKeys() ([]int64, error)                      { return nil, nil }

func (s *fakeStore) FindPredictedByKey(instanceID int64) (*flight.PredictedFlight, error) {
	if s.failKeys[instanceID] {
		return nil, errors.New("disk failure")
	}
	p, ok := s.predicted[instanceID]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.RouteElements = append([]flight.RouteElement(nil), p.RouteElements...)
	return &cp, nil
}

func (s *fakeStore) UpsertPredicted(p *flight.PredictedFlight) error {
	cp := *p
	s.predicted[p.InstanceID] = &cp
	return nil
}

func (s *fakeStore) ListAllPredictedKeys() ([]int64, error) {
	keys := make([]int64, 0, len(s.predicted))
	for k := range s.predicted {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

func sparseFlight(instanceID int64) *flight.PredictedFlight {
	p := sparseRoute()
	p.InstanceID = instanceID
	return p
}

func newTestDensifyService(store flight.Storage) *Service {
	log := logger.NewNop()
	return NewService(store, NewDensifier(nil, log), 10, 2, nil, log)
}

func TestDensifyFlightPersistsExpandedRoute(t *testing.T) {
	store := newFakeStore()
	store.predicted[1] = sparseFlight(1)
	svc := newTestDensifyService(store)

	outcome := svc.DensifyFlight(context.Background(), 1)
	if outcome.Status != StatusSuccess {
		t.Fatalf("Status = %s, want %s (%s)", outcome.Status, StatusSuccess, outcome.Message)
	}

	stored, err := store.FindPredictedByKey(1)
	if err != nil || stored == nil {
		t.Fatalf("FindPredictedByKey() = %v, %v", stored, err)
	}
	if len(stored.RouteElements) != outcome.AchievedCount {
		t.Errorf("persisted elements = %d, want %d", len(stored.RouteElements), outcome.AchievedCount)
	}
}

func TestDensifyFlightNotFound(t *testing.T) {
	svc := newTestDensifyService(newFakeStore())

	outcome := svc.DensifyFlight(context.Background(), 404)
	if outcome.Status != StatusNotFound {
		t.Errorf("Status = %s, want %s", outcome.Status, StatusNotFound)
	}
}

func TestDensifyBatchCountsAndContinuesPastFailures(t *testing.T) {
	store := newFakeStore()
	store.predicted[1] = sparseFlight(1)
	store.predicted[2] = sparseFlight(2)
	store.predicted[4] = sparseFlight(4)
	store.failKeys[3] = true
	svc := newTestDensifyService(store)

	// Batch size 2 forces multiple sub-batches; flight 3 fails, 5 is absent
	result := svc.DensifyBatch(context.Background(), []int64{1, 2, 3, 4, 5})

	if result.TotalRequested != 5 {
		t.Errorf("TotalRequested = %d, want 5", result.TotalRequested)
	}
	if result.Processed != 3 {
		t.Errorf("Processed = %d, want 3", result.Processed)
	}
	if result.NotFound != 1 {
		t.Errorf("NotFound = %d, want 1", result.NotFound)
	}
	if result.Errors != 1 || len(result.ErrorList) != 1 {
		t.Errorf("Errors = %d (list %v), want 1", result.Errors, result.ErrorList)
	}
	if len(result.Outcomes) != 5 {
		t.Errorf("Outcomes = %d, want one per requested flight", len(result.Outcomes))
	}
	if result.Message == "" || !strings.Contains(result.Message, "3 of 5") {
		t.Errorf("Message = %q, want a human-readable summary", result.Message)
	}
}

func TestDensifyAllCoversEveryStoredFlight(t *testing.T) {
	store := newFakeStore()
	store.predicted[1] = sparseFlight(1)
	store.predicted[2] = sparseFlight(2)
	svc := newTestDensifyService(store)

	result, err := svc.DensifyAll(context.Background())
	if err != nil {
		t.Fatalf("DensifyAll() error = %v", err)
	}
	if result.TotalRequested != 2 || result.Processed != 2 {
		t.Errorf("result = requested %d, processed %d, want 2 and 2", result.TotalRequested, result.Processed)
	}
}
