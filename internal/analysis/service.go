package analysis

import (
	"fmt"
	"time"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/match"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/websocket"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// PunctualityReport is the full outcome of one punctuality analysis run
type PunctualityReport struct {
	Qualification    *match.Result      `json:"qualification"`
	SkippedDurations int                `json:"skipped_durations"`
	Result           *PunctualityResult `json:"result"`
	Message          string             `json:"message"`
}

// AccuracyReport is the full outcome of one accuracy analysis run
type AccuracyReport struct {
	Qualification *match.Result   `json:"qualification"`
	Result        *AccuracyResult `json:"result"`
	Message       string          `json:"message"`
}

// Service runs the analysis boundary operations. Each run loads the current
// predicted and real flights, qualifies them once through the shared
// matcher, and hands the same qualified set to the requested analyzer, so
// punctuality and accuracy reports always describe the same flights.
type Service struct {
	store       flight.Storage
	matcher     *match.Matcher
	punctuality *PunctualityAnalyzer
	accuracy    *AccuracyAnalyzer
	wsServer    *websocket.Server
	logger      *logger.Logger
}

// NewService creates an analysis service. wsServer may be nil.
func NewService(store flight.Storage, matcher *match.Matcher, punctuality *PunctualityAnalyzer, accuracy *AccuracyAnalyzer, wsServer *websocket.Server, log *logger.Logger) *Service {
	return &Service{
		store:       store,
		matcher:     matcher,
		punctuality: punctuality,
		accuracy:    accuracy,
		wsServer:    wsServer,
		logger:      log.Named("analysis"),
	}
}

// RunPunctualityAnalysis qualifies all current flights and computes the
// punctuality KPI over the pairs with extractable durations
func (s *Service) RunPunctualityAnalysis() (*PunctualityReport, error) {
	start := time.Now()

	qualification, err := s.qualifyAll()
	if err != nil {
		return nil, err
	}

	pairs := make([]DurationPair, 0, len(qualification.Pairs))
	skipped := 0
	for i := range qualification.Pairs {
		dp, ok := ExtractDurations(&qualification.Pairs[i])
		if !ok {
			skipped++
			continue
		}
		pairs = append(pairs, *dp)
	}

	report := &PunctualityReport{
		Qualification:    qualification,
		SkippedDurations: skipped,
		Result:           s.punctuality.Analyze(pairs, qualification.Qualified),
		Message: fmt.Sprintf("analyzed %d of %d qualified flights (%d skipped for missing or invalid durations)",
			len(pairs), qualification.Qualified, skipped),
	}

	s.logger.Info("Punctuality run complete",
		logger.Int("qualified", qualification.Qualified),
		logger.Int("analyzed", len(pairs)),
		logger.Duration("duration", time.Since(start)))

	s.broadcast("punctuality", report)
	return report, nil
}

// RunAccuracyAnalysis qualifies all current flights and computes horizontal
// and vertical error statistics over the equal-length pairs
func (s *Service) RunAccuracyAnalysis() (*AccuracyReport, error) {
	start := time.Now()

	qualification, err := s.qualifyAll()
	if err != nil {
		return nil, err
	}

	report := &AccuracyReport{
		Qualification: qualification,
		Result:        s.accuracy.Analyze(qualification.Pairs),
	}
	report.Message = fmt.Sprintf("analyzed %d of %d qualified flights (%d skipped for unequal point counts)",
		report.Result.Analyzed, qualification.Qualified, report.Result.SkippedLengthMismatch)

	s.logger.Info("Accuracy run complete",
		logger.Int("qualified", qualification.Qualified),
		logger.Int("analyzed", report.Result.Analyzed),
		logger.Duration("duration", time.Since(start)))

	s.broadcast("accuracy", report)
	return report, nil
}

// qualifyAll loads every stored predicted flight and runs the shared
// qualification pipeline against the flight store
func (s *Service) qualifyAll() (*match.Result, error) {
	keys, err := s.store.ListAllPredictedKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to list predicted keys: %w", err)
	}

	predicted := make([]*flight.PredictedFlight, 0, len(keys))
	for _, key := range keys {
		p, err := s.store.FindPredictedByKey(key)
		if err != nil {
			return nil, fmt.Errorf("failed to load predicted flight %d: %w", key, err)
		}
		if p != nil {
			predicted = append(predicted, p)
		}
	}

	return s.matcher.Qualify(predicted, s.store.FindFlightByKey)
}

func (s *Service) broadcast(kind string, report any) {
	if s.wsServer == nil {
		return
	}
	s.wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeAnalysisResult,
		Data: map[string]any{"kind": kind, "report": report},
	})
}
