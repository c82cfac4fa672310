package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// FindPredictedByKey returns the predicted flight with the given instance id,
// or nil if no such record exists
func (s *FlightStorage) FindPredictedByKey(instanceID int64) (*flight.PredictedFlight, error) {
	row := s.db.QueryRow(`
		SELECT instance_id, indicative, departure, arrival, time_window, created_at, updated_at
		FROM predicted_flights WHERE instance_id = ?
	`, instanceID)

	var p flight.PredictedFlight
	var createdAt, updatedAt string

	err := row.Scan(&p.InstanceID, &p.Indicative, &p.Departure, &p.Arrival,
		&p.TimeWindow, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query predicted flight %d: %w", instanceID, err)
	}

	if p.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	elements, err := s.getRouteElements(instanceID)
	if err != nil {
		return nil, err
	}
	p.RouteElements = elements

	segments, err := s.getRouteSegments(instanceID)
	if err != nil {
		return nil, err
	}
	p.Segments = segments

	return &p, nil
}

// getRouteElements retrieves a predicted flight's route elements in route order
func (s *FlightStorage) getRouteElements(instanceID int64) ([]flight.RouteElement, error) {
	rows, err := s.db.Query(`
		SELECT element_id, lat_deg, lon_deg, altitude_m, speed_kts, eet_minutes, type, interpolated, mag_track_deg
		FROM route_elements WHERE instance_id = ? ORDER BY position
	`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query route elements for %d: %w", instanceID, err)
	}
	defer rows.Close()

	var elements []flight.RouteElement
	for rows.Next() {
		var e flight.RouteElement
		var interpolated int
		if err := rows.Scan(&e.ID, &e.LatDeg, &e.LonDeg, &e.AltitudeM, &e.SpeedKts,
			&e.EETMinutes, &e.Type, &interpolated, &e.MagTrackDeg); err != nil {
			return nil, fmt.Errorf("failed to scan route element row: %w", err)
		}
		e.Interpolated = interpolated != 0
		elements = append(elements, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route element rows: %w", err)
	}

	return elements, nil
}

// getRouteSegments retrieves a predicted flight's route segments
func (s *FlightStorage) getRouteSegments(instanceID int64) ([]flight.RouteSegment, error) {
	rows, err := s.db.Query(`
		SELECT from_id, to_id, distance_nm
		FROM route_segments WHERE instance_id = ? ORDER BY id
	`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query route segments for %d: %w", instanceID, err)
	}
	defer rows.Close()

	var segments []flight.RouteSegment
	for rows.Next() {
		var seg flight.RouteSegment
		if err := rows.Scan(&seg.FromID, &seg.ToID, &seg.DistanceNM); err != nil {
			return nil, fmt.Errorf("failed to scan route segment row: %w", err)
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route segment rows: %w", err)
	}

	return segments, nil
}

// UpsertPredicted creates or replaces the predicted flight record, its route
// elements, and its segments in a single transaction
func (s *FlightStorage) UpsertPredicted(p *flight.PredictedFlight) error {
	start := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.Exec(`
		INSERT INTO predicted_flights (instance_id, indicative, departure, arrival, time_window, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id) DO UPDATE SET
			indicative = excluded.indicative,
			departure = excluded.departure,
			arrival = excluded.arrival,
			time_window = excluded.time_window,
			updated_at = excluded.updated_at
	`, p.InstanceID, p.Indicative, p.Departure, p.Arrival, p.TimeWindow,
		formatTimestamp(now), formatTimestamp(now))
	if err != nil {
		return fmt.Errorf("failed to upsert predicted flight %d: %w", p.InstanceID, err)
	}

	if _, err := tx.Exec(`DELETE FROM route_elements WHERE instance_id = ?`, p.InstanceID); err != nil {
		return fmt.Errorf("failed to clear route elements for %d: %w", p.InstanceID, err)
	}
	if _, err := tx.Exec(`DELETE FROM route_segments WHERE instance_id = ?`, p.InstanceID); err != nil {
		return fmt.Errorf("failed to clear route segments for %d: %w", p.InstanceID, err)
	}

	elemStmt, err := tx.Prepare(`
		INSERT INTO route_elements (instance_id, position, element_id, lat_deg, lon_deg,
			altitude_m, speed_kts, eet_minutes, type, interpolated, mag_track_deg)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare route element insert: %w", err)
	}
	defer elemStmt.Close()

	for i, e := range p.RouteElements {
		interpolated := 0
		if e.Interpolated {
			interpolated = 1
		}
		if _, err := elemStmt.Exec(p.InstanceID, i, e.ID, e.LatDeg, e.LonDeg,
			e.AltitudeM, e.SpeedKts, e.EETMinutes, e.Type, interpolated, e.MagTrackDeg); err != nil {
			return fmt.Errorf("failed to insert route element %d for %d: %w", i, p.InstanceID, err)
		}
	}

	segStmt, err := tx.Prepare(`
		INSERT INTO route_segments (instance_id, from_id, to_id, distance_nm)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare route segment insert: %w", err)
	}
	defer segStmt.Close()

	for _, seg := range p.Segments {
		if _, err := segStmt.Exec(p.InstanceID, seg.FromID, seg.ToID, seg.DistanceNM); err != nil {
			return fmt.Errorf("failed to insert route segment for %d: %w", p.InstanceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit predicted flight upsert: %w", err)
	}

	s.logger.Debug("Upserted predicted flight",
		logger.Int64("instance_id", p.InstanceID),
		logger.Int("elements", len(p.RouteElements)),
		logger.Duration("duration", time.Since(start)))

	return nil
}

// ListAllPredictedKeys returns the instance ids of all stored predicted flights
func (s *FlightStorage) ListAllPredictedKeys() ([]int64, error) {
	rows, err := s.db.Query(`SELECT instance_id FROM predicted_flights ORDER BY instance_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list predicted keys: %w", err)
	}
	defer rows.Close()

	var keys []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan predicted key: %w", err)
		}
		keys = append(keys, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predicted keys: %w", err)
	}

	return keys, nil
}
