package densify

import (
	"context"
	"fmt"
	"time"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/websocket"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// BatchResult summarizes one batch densification run. Per-flight failures
// are collected, never allowed to abort the rest of the batch.
type BatchResult struct {
	TotalRequested int       `json:"total_requested"`
	Processed      int       `json:"processed"`
	NotFound       int       `json:"not_found"`
	Errors         int       `json:"errors"`
	Outcomes       []Outcome `json:"outcomes"`
	ErrorList      []string  `json:"error_list,omitempty"`
	Message        string    `json:"message"`
}

// Service runs densification against the store and persists expanded routes
type Service struct {
	store       flight.Storage
	densifier   *Densifier
	targetCount int
	batchSize   int
	wsServer    *websocket.Server
	logger      *logger.Logger
}

// NewService creates a densification service. wsServer may be nil.
func NewService(store flight.Storage, densifier *Densifier, targetCount, batchSize int, wsServer *websocket.Server, log *logger.Logger) *Service {
	return &Service{
		store:       store,
		densifier:   densifier,
		targetCount: targetCount,
		batchSize:   batchSize,
		wsServer:    wsServer,
		logger:      log.Named("densify"),
	}
}

// TargetCount returns the configured target element count
func (s *Service) TargetCount() int {
	return s.targetCount
}

// DensifyFlight densifies one predicted flight by instance id and persists
// the expanded route. Expected-absence and failures are statuses on the
// outcome, not errors.
func (s *Service) DensifyFlight(ctx context.Context, instanceID int64) *Outcome {
	p, err := s.store.FindPredictedByKey(instanceID)
	if err != nil {
		return &Outcome{
			InstanceID: instanceID,
			Status:     StatusError,
			Message:    fmt.Sprintf("failed to load predicted flight: %v", err),
		}
	}
	if p == nil {
		return &Outcome{
			InstanceID: instanceID,
			Status:     StatusNotFound,
			Message:    fmt.Sprintf("no predicted flight with instance id %d", instanceID),
		}
	}

	outcome := s.densifier.Densify(ctx, p, s.targetCount)
	if outcome.Status != StatusSuccess {
		return outcome
	}

	if err := s.store.UpsertPredicted(p); err != nil {
		outcome.Status = StatusError
		outcome.Message = fmt.Sprintf("failed to persist densified route: %v", err)
		return outcome
	}

	if s.wsServer != nil {
		s.wsServer.Broadcast(&websocket.Message{
			Type: websocket.MessageTypeDensifyComplete,
			Data: outcome,
		})
	}

	return outcome
}

// DensifyBatch densifies many flights, processing sub-batches sequentially
// to cap memory and store round-trip size. One flight's failure never stops
// the others.
func (s *Service) DensifyBatch(ctx context.Context, instanceIDs []int64) *BatchResult {
	start := time.Now()
	result := &BatchResult{
		TotalRequested: len(instanceIDs),
		Outcomes:       make([]Outcome, 0, len(instanceIDs)),
	}

	for batchStart := 0; batchStart < len(instanceIDs); batchStart += s.batchSize {
		batchEnd := batchStart + s.batchSize
		if batchEnd > len(instanceIDs) {
			batchEnd = len(instanceIDs)
		}

		for _, id := range instanceIDs[batchStart:batchEnd] {
			outcome := s.DensifyFlight(ctx, id)
			result.Outcomes = append(result.Outcomes, *outcome)

			switch outcome.Status {
			case StatusNotFound:
				result.NotFound++
			case StatusError:
				result.Errors++
				result.ErrorList = append(result.ErrorList,
					fmt.Sprintf("flight %d: %s", id, outcome.Message))
			default:
				result.Processed++
			}
		}
	}

	result.Message = fmt.Sprintf("densified %d of %d flights (%d not found, %d errors)",
		result.Processed, result.TotalRequested, result.NotFound, result.Errors)

	s.logger.Info("Batch densification complete",
		logger.Int("requested", result.TotalRequested),
		logger.Int("processed", result.Processed),
		logger.Int("not_found", result.NotFound),
		logger.Int("errors", result.Errors),
		logger.Duration("duration", time.Since(start)))

	return result
}

// DensifyAll densifies every stored predicted flight
func (s *Service) DensifyAll(ctx context.Context) (*BatchResult, error) {
	keys, err := s.store.ListAllPredictedKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to list predicted keys: %w", err)
	}
	return s.DensifyBatch(ctx, keys), nil
}
