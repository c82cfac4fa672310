package ingest

import (
	"fmt"
	"sync"
	"time"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/websocket"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// Service implements the ingestion boundary: it applies flight intentions to
// the store and attaches tracking pings to flights via the disambiguator.
// Packets are processed synchronously to completion; store failures abort the
// current packet only.
type Service struct {
	store    flight.Storage
	disamb   *Disambiguator
	wsServer *websocket.Server
	logger   *logger.Logger

	mu    sync.Mutex
	stats Stats
}

// NewService creates a new ingestion service. wsServer may be nil; stats
// broadcasting is skipped then.
func NewService(store flight.Storage, disamb *Disambiguator, wsServer *websocket.Server, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		disamb:   disamb,
		wsServer: wsServer,
		logger:   log.Named("ingest"),
	}
}

// ProcessPacket applies one packet to the store and returns per-packet
// counts. Tracking points that fit no flight's matching window are discarded
// and counted, never attached on a guess.
func (s *Service) ProcessPacket(packet *Packet) (*Result, error) {
	start := time.Now()
	res := &Result{}

	for _, intention := range packet.FlightIntentions {
		if intention.PlanID == 0 {
			s.logger.Debug("Skipping flight intention without plan id",
				logger.String("indicative", intention.Indicative))
			continue
		}

		created, err := s.applyIntention(&intention)
		if err != nil {
			return nil, err
		}
		if created {
			res.FlightsCreated++
		} else {
			res.FlightsUpdated++
		}
	}

	if len(packet.TrackingPings) > 0 {
		attached, discarded, err := s.attachPings(packet.TrackingPings)
		if err != nil {
			return nil, err
		}
		res.PointsAttached = attached
		res.PointsDiscarded = discarded
	}

	res.Message = fmt.Sprintf("processed %d intentions (%d created, %d updated), %d points attached, %d discarded",
		len(packet.FlightIntentions), res.FlightsCreated, res.FlightsUpdated,
		res.PointsAttached, res.PointsDiscarded)

	s.recordPacket(res)

	s.logger.Info("Processed packet",
		logger.Int("intentions", len(packet.FlightIntentions)),
		logger.Int("pings", len(packet.TrackingPings)),
		logger.Int("created", res.FlightsCreated),
		logger.Int("attached", res.PointsAttached),
		logger.Int("discarded", res.PointsDiscarded),
		logger.Duration("duration", time.Since(start)))

	return res, nil
}

// applyIntention creates or refreshes one flight record. Returns true when
// the flight was created.
func (s *Service) applyIntention(intention *FlightIntention) (bool, error) {
	existing, err := s.store.FindFlightByKey(intention.PlanID)
	if err != nil {
		return false, fmt.Errorf("failed to look up flight %d: %w", intention.PlanID, err)
	}

	if existing == nil {
		f := &flight.RealFlight{
			PlanID:           intention.PlanID,
			Indicative:       intention.Indicative,
			Origin:           intention.Origin,
			Destination:      intention.Destination,
			FlightPlanDate:   intention.FlightPlanDate,
			ScheduledArrival: intention.ScheduledArrival,
			CurrentArrival:   intention.CurrentArrival,
		}
		if err := s.store.UpsertFlight(f); err != nil {
			return false, fmt.Errorf("failed to create flight %d: %w", intention.PlanID, err)
		}
		return true, nil
	}

	// Refresh schedule fields; tracking points already attached are kept
	if intention.Indicative != "" {
		existing.Indicative = intention.Indicative
	}
	if intention.Origin != "" {
		existing.Origin = intention.Origin
	}
	if intention.Destination != "" {
		existing.Destination = intention.Destination
	}
	if !intention.FlightPlanDate.IsZero() {
		existing.FlightPlanDate = intention.FlightPlanDate
	}
	if !intention.ScheduledArrival.IsZero() {
		existing.ScheduledArrival = intention.ScheduledArrival
	}
	if !intention.CurrentArrival.IsZero() {
		existing.CurrentArrival = intention.CurrentArrival
	}

	if err := s.store.UpsertFlight(existing); err != nil {
		return false, fmt.Errorf("failed to update flight %d: %w", intention.PlanID, err)
	}
	return false, nil
}

// attachPings disambiguates and appends the packet's tracking pings. Points
// attach in arrival order; no timestamp re-sorting is done. Each touched
// flight is written back once.
func (s *Service) attachPings(pings []TrackingPing) (attached, discarded int, err error) {
	byIndicative, byPlanID, err := s.loadCandidates()
	if err != nil {
		return 0, 0, err
	}

	modified := make(map[int64]bool)

	for _, ping := range pings {
		candidates := byIndicative[ping.Indicative]
		planID, ok := s.disamb.Attach(ping.ReceivedAt, candidates)
		if !ok {
			discarded++
			continue
		}

		f := byPlanID[planID]
		f.TrackingPoints = append(f.TrackingPoints, flight.TrackingPoint{
			LatRad:      ping.LatRad,
			LonRad:      ping.LonRad,
			FlightLevel: ping.FlightLevel,
			GroundSpeed: ping.GroundSpeed,
			Sequence:    ping.Sequence,
			ReceivedAt:  ping.ReceivedAt,
		})
		modified[planID] = true
		attached++
	}

	for planID := range modified {
		f := byPlanID[planID]
		f.TrackingPointCount = len(f.TrackingPoints)
		if err := s.store.UpsertFlight(f); err != nil {
			return attached, discarded, fmt.Errorf("failed to persist flight %d: %w", planID, err)
		}
	}

	return attached, discarded, nil
}

// loadCandidates loads every stored flight, grouped by call sign and keyed by
// plan id. The store contract offers key lookup and listing only, so
// candidate search is a full scan per packet.
func (s *Service) loadCandidates() (map[string][]*flight.RealFlight, map[int64]*flight.RealFlight, error) {
	keys, err := s.store.ListAllFlightKeys()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list flight keys: %w", err)
	}

	byIndicative := make(map[string][]*flight.RealFlight)
	byPlanID := make(map[int64]*flight.RealFlight, len(keys))

	for _, key := range keys {
		f, err := s.store.FindFlightByKey(key)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load flight %d: %w", key, err)
		}
		if f == nil {
			continue
		}
		byIndicative[f.Indicative] = append(byIndicative[f.Indicative], f)
		byPlanID[f.PlanID] = f
	}

	return byIndicative, byPlanID, nil
}

// recordPacket folds one packet result into the running totals and pushes
// them to websocket subscribers
func (s *Service) recordPacket(res *Result) {
	s.mu.Lock()
	s.stats.Packets++
	s.stats.FlightsCreated += int64(res.FlightsCreated)
	s.stats.FlightsUpdated += int64(res.FlightsUpdated)
	s.stats.PointsAttached += int64(res.PointsAttached)
	s.stats.PointsDiscarded += int64(res.PointsDiscarded)
	s.stats.LastPacketAt = time.Now().UTC()
	snapshot := s.stats
	s.mu.Unlock()

	if s.wsServer != nil {
		s.wsServer.Broadcast(&websocket.Message{
			Type: websocket.MessageTypeIngestStats,
			Data: snapshot,
		})
	}
}

// Stats returns a snapshot of the running ingestion totals
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
