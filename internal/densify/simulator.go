package densify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// Simulator generates kinematically consistent intermediate points for one
// route segment. Implementations may fail partially or totally; the densifier
// falls back to linear interpolation per missing point, never aborting the
// flight.
type Simulator interface {
	Simulate(ctx context.Context, flightCtx *flight.PredictedFlight, start, end flight.RouteElement, count int) ([]flight.RouteElement, error)
}

// HTTPSimulator calls an external trajectory simulation engine over HTTP
type HTTPSimulator struct {
	url    string
	client *http.Client
	logger *logger.Logger
}

// NewHTTPSimulator creates an adapter for the external simulator at the
// given URL
func NewHTTPSimulator(url string, timeout time.Duration, log *logger.Logger) *HTTPSimulator {
	return &HTTPSimulator{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: log.Named("simulator"),
	}
}

// simulationRequest is the wire form of one segment simulation request
type simulationRequest struct {
	InstanceID int64               `json:"instance_id"`
	Indicative string              `json:"indicative"`
	Departure  string              `json:"departure"`
	Arrival    string              `json:"arrival"`
	Start      flight.RouteElement `json:"start"`
	End        flight.RouteElement `json:"end"`
	Count      int                 `json:"count"`
}

// simulationResponse is the wire form of the simulator's answer
type simulationResponse struct {
	Points []flight.RouteElement `json:"points"`
}

// Simulate requests count intermediate points for the segment. Any transport
// or decode failure is returned as an error for the caller to degrade on.
func (s *HTTPSimulator) Simulate(ctx context.Context, flightCtx *flight.PredictedFlight, start, end flight.RouteElement, count int) ([]flight.RouteElement, error) {
	reqBody, err := json.Marshal(simulationRequest{
		InstanceID: flightCtx.InstanceID,
		Indicative: flightCtx.Indicative,
		Departure:  flightCtx.Departure,
		Arrival:    flightCtx.Arrival,
		Start:      start,
		End:        end,
		Count:      count,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal simulation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create simulation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("simulation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("simulator returned status %d: %s", resp.StatusCode, string(body))
	}

	var simResp simulationResponse
	if err := json.NewDecoder(resp.Body).Decode(&simResp); err != nil {
		return nil, fmt.Errorf("failed to decode simulation response: %w", err)
	}

	return simResp.Points, nil
}
