package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/analysis"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/config"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/densify"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/ingest"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	ingestService   *ingest.Service
	densifyService  *densify.Service
	analysisService *analysis.Service
	store           flight.Storage
	config          *config.Config
	logger          *logger.Logger
	startedAt       time.Time
}

// NewHandler creates a new API handler
func NewHandler(ingestService *ingest.Service, densifyService *densify.Service, analysisService *analysis.Service, store flight.Storage, config *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		ingestService:   ingestService,
		densifyService:  densifyService,
		analysisService: analysisService,
		store:           store,
		config:          config,
		logger:          log.Named("api-handler"),
		startedAt:       time.Now().UTC(),
	}
}

// PostPacket ingests one tracking packet
func (h *Handler) PostPacket(w http.ResponseWriter, r *http.Request) {
	var raw ingest.RawPacket
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	packet, err := raw.Convert()
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid packet: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.ingestService.ProcessPacket(packet)
	if err != nil {
		h.logger.Error("Failed to process packet", logger.Error(err))
		http.Error(w, "Failed to process packet", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// predictedUploadResult summarizes one predicted-route upload
type predictedUploadResult struct {
	Received int      `json:"received"`
	Stored   int      `json:"stored"`
	Errors   []string `json:"errors,omitempty"`
}

// PostPredicted uploads one or many predicted flights. The body may be a
// single object or an array; fields tolerate the string-or-number variations
// the prediction feed produces.
func (h *Handler) PostPredicted(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	var raws []ingest.RawPredictedFlight
	if err := json.Unmarshal(body, &raws); err != nil {
		var single ingest.RawPredictedFlight
		if err := json.Unmarshal(body, &single); err != nil {
			http.Error(w, "Expected a predicted flight or an array of them", http.StatusBadRequest)
			return
		}
		raws = append(raws, single)
	}

	result := &predictedUploadResult{Received: len(raws)}
	for i := range raws {
		p, err := raws[i].Convert()
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if err := h.store.UpsertPredicted(p); err != nil {
			h.logger.Error("Failed to store predicted flight",
				logger.Int64("instance_id", p.InstanceID),
				logger.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("flight %d: store failure", p.InstanceID))
			continue
		}
		result.Stored++
	}

	status := http.StatusOK
	if result.Stored == 0 && len(result.Errors) > 0 {
		status = http.StatusBadRequest
	}
	h.respondJSON(w, status, result)
}

// flightSummary is the listing form of a real flight, without its track
type flightSummary struct {
	PlanID             int64     `json:"plan_id"`
	Indicative         string    `json:"indicative"`
	Origin             string    `json:"origin"`
	Destination        string    `json:"destination"`
	FlightPlanDate     time.Time `json:"flight_plan_date"`
	ScheduledArrival   time.Time `json:"scheduled_arrival"`
	CurrentArrival     time.Time `json:"current_arrival"`
	TrackingPointCount int       `json:"tracking_point_count"`
}

// GetAllFlights returns summaries of all stored flights
func (h *Handler) GetAllFlights(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListAllFlightKeys()
	if err != nil {
		h.logger.Error("Failed to list flights", logger.Error(err))
		http.Error(w, "Failed to list flights", http.StatusInternalServerError)
		return
	}

	summaries := make([]flightSummary, 0, len(keys))
	for _, key := range keys {
		f, err := h.store.FindFlightByKey(key)
		if err != nil {
			h.logger.Error("Failed to load flight", logger.Int64("plan_id", key), logger.Error(err))
			http.Error(w, "Failed to load flights", http.StatusInternalServerError)
			return
		}
		if f == nil {
			continue
		}
		summaries = append(summaries, flightSummary{
			PlanID:             f.PlanID,
			Indicative:         f.Indicative,
			Origin:             f.Origin,
			Destination:        f.Destination,
			FlightPlanDate:     f.FlightPlanDate,
			ScheduledArrival:   f.ScheduledArrival,
			CurrentArrival:     f.CurrentArrival,
			TrackingPointCount: f.TrackingPointCount,
		})
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(summaries),
		"flights": summaries,
	})
}

// GetFlightByID returns one flight with its track. Tracks longer than the
// configured API limit are truncated to the most recent points.
func (h *Handler) GetFlightByID(w http.ResponseWriter, r *http.Request) {
	planID, ok := h.parseID(w, r, "planID")
	if !ok {
		return
	}

	f, err := h.store.FindFlightByKey(planID)
	if err != nil {
		h.logger.Error("Failed to load flight", logger.Int64("plan_id", planID), logger.Error(err))
		http.Error(w, "Failed to load flight", http.StatusInternalServerError)
		return
	}
	if f == nil {
		http.Error(w, "Flight not found", http.StatusNotFound)
		return
	}

	if max := h.config.Storage.MaxPointsInAPI; max > 0 && len(f.TrackingPoints) > max {
		f.TrackingPoints = f.TrackingPoints[len(f.TrackingPoints)-max:]
	}

	h.respondJSON(w, http.StatusOK, f)
}

// GetAllPredicted returns summaries of all stored predicted flights
func (h *Handler) GetAllPredicted(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListAllPredictedKeys()
	if err != nil {
		h.logger.Error("Failed to list predicted flights", logger.Error(err))
		http.Error(w, "Failed to list predicted flights", http.StatusInternalServerError)
		return
	}

	type predictedSummary struct {
		InstanceID   int64  `json:"instance_id"`
		Indicative   string `json:"indicative"`
		Departure    string `json:"departure"`
		Arrival      string `json:"arrival"`
		TimeWindow   string `json:"time_window"`
		ElementCount int    `json:"element_count"`
	}

	summaries := make([]predictedSummary, 0, len(keys))
	for _, key := range keys {
		p, err := h.store.FindPredictedByKey(key)
		if err != nil {
			h.logger.Error("Failed to load predicted flight", logger.Int64("instance_id", key), logger.Error(err))
			http.Error(w, "Failed to load predicted flights", http.StatusInternalServerError)
			return
		}
		if p == nil {
			continue
		}
		summaries = append(summaries, predictedSummary{
			InstanceID:   p.InstanceID,
			Indicative:   p.Indicative,
			Departure:    p.Departure,
			Arrival:      p.Arrival,
			TimeWindow:   p.TimeWindow,
			ElementCount: len(p.RouteElements),
		})
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"count":     len(summaries),
		"predicted": summaries,
	})
}

// GetPredictedByID returns one predicted flight with its route and segments
func (h *Handler) GetPredictedByID(w http.ResponseWriter, r *http.Request) {
	instanceID, ok := h.parseID(w, r, "instanceID")
	if !ok {
		return
	}

	p, err := h.store.FindPredictedByKey(instanceID)
	if err != nil {
		h.logger.Error("Failed to load predicted flight", logger.Int64("instance_id", instanceID), logger.Error(err))
		http.Error(w, "Failed to load predicted flight", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "Predicted flight not found", http.StatusNotFound)
		return
	}

	h.respondJSON(w, http.StatusOK, p)
}

// PostDensifyFlight densifies one predicted flight by instance id
func (h *Handler) PostDensifyFlight(w http.ResponseWriter, r *http.Request) {
	instanceID, ok := h.parseID(w, r, "instanceID")
	if !ok {
		return
	}

	outcome := h.densifyService.DensifyFlight(r.Context(), instanceID)

	status := http.StatusOK
	switch outcome.Status {
	case densify.StatusNotFound:
		status = http.StatusNotFound
	case densify.StatusError:
		status = http.StatusInternalServerError
	}
	h.respondJSON(w, status, outcome)
}

// PostDensifyBatch densifies the listed predicted flights
func (h *Handler) PostDensifyBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InstanceIDs []int64 `json:"instance_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if len(req.InstanceIDs) == 0 {
		http.Error(w, "instance_ids is required", http.StatusBadRequest)
		return
	}

	result := h.densifyService.DensifyBatch(r.Context(), req.InstanceIDs)
	h.respondJSON(w, http.StatusOK, result)
}

// PostDensifyAll densifies every stored predicted flight
func (h *Handler) PostDensifyAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.densifyService.DensifyAll(r.Context())
	if err != nil {
		h.logger.Error("Failed to densify all flights", logger.Error(err))
		http.Error(w, "Failed to densify flights", http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// PostPunctualityAnalysis runs the punctuality analysis over the current data
func (h *Handler) PostPunctualityAnalysis(w http.ResponseWriter, r *http.Request) {
	report, err := h.analysisService.RunPunctualityAnalysis()
	if err != nil {
		h.logger.Error("Punctuality analysis failed", logger.Error(err))
		http.Error(w, "Punctuality analysis failed", http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

// PostAccuracyAnalysis runs the accuracy analysis over the current data
func (h *Handler) PostAccuracyAnalysis(w http.ResponseWriter, r *http.Request) {
	report, err := h.analysisService.RunAccuracyAnalysis()
	if err != nil {
		h.logger.Error("Accuracy analysis failed", logger.Error(err))
		http.Error(w, "Accuracy analysis failed", http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

// GetStats returns the running ingestion totals
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.ingestService.Stats())
}

// GetStatus returns server uptime and stored record counts
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	flightKeys, err := h.store.ListAllFlightKeys()
	if err != nil {
		h.logger.Error("Failed to count flights", logger.Error(err))
		http.Error(w, "Failed to read status", http.StatusInternalServerError)
		return
	}
	predictedKeys, err := h.store.ListAllPredictedKeys()
	if err != nil {
		h.logger.Error("Failed to count predicted flights", logger.Error(err))
		http.Error(w, "Failed to read status", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"uptime_seconds":    int64(time.Since(h.startedAt).Seconds()),
		"flights":           len(flightKeys),
		"predicted_flights": len(predictedKeys),
		"densify_target":    h.densifyService.TargetCount(),
	})
}

// parseID extracts a positive integer URL parameter
func (h *Handler) parseID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		http.Error(w, fmt.Sprintf("Missing %s", name), http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, fmt.Sprintf("Invalid %s", name), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// respondJSON writes a JSON response with the given status code
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}
