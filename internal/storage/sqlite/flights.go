package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// FindFlightByKey returns the flight with the given plan id, or nil if no
// such flight exists
func (s *FlightStorage) FindFlightByKey(planID int64) (*flight.RealFlight, error) {
	row := s.db.QueryRow(`
		SELECT plan_id, indicative, origin, destination,
		flight_plan_date, scheduled_arrival, current_arrival,
		created_at, updated_at
		FROM flights WHERE plan_id = ?
	`, planID)

	var f flight.RealFlight
	var planDate, schedArrival, currArrival, createdAt, updatedAt string

	err := row.Scan(
		&f.PlanID, &f.Indicative, &f.Origin, &f.Destination,
		&planDate, &schedArrival, &currArrival,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query flight %d: %w", planID, err)
	}

	if f.FlightPlanDate, err = parseTimestamp(planDate); err != nil {
		return nil, fmt.Errorf("failed to parse flight_plan_date: %w", err)
	}
	if f.ScheduledArrival, err = parseTimestamp(schedArrival); err != nil {
		return nil, fmt.Errorf("failed to parse scheduled_arrival: %w", err)
	}
	if f.CurrentArrival, err = parseTimestamp(currArrival); err != nil {
		return nil, fmt.Errorf("failed to parse current_arrival: %w", err)
	}
	if f.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if f.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	points, err := s.getTrackingPoints(planID)
	if err != nil {
		return nil, err
	}
	f.TrackingPoints = points
	f.TrackingPointCount = len(points)

	return &f, nil
}

// getTrackingPoints retrieves a flight's tracking points in attachment order
func (s *FlightStorage) getTrackingPoints(planID int64) ([]flight.TrackingPoint, error) {
	rows, err := s.db.Query(`
		SELECT seq, lat_rad, lon_rad, flight_level, ground_speed, received_at
		FROM tracking_points WHERE plan_id = ? ORDER BY position
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracking points for %d: %w", planID, err)
	}
	defer rows.Close()

	var points []flight.TrackingPoint
	for rows.Next() {
		var p flight.TrackingPoint
		var receivedAt string
		if err := rows.Scan(&p.Sequence, &p.LatRad, &p.LonRad, &p.FlightLevel, &p.GroundSpeed, &receivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tracking point row: %w", err)
		}
		if p.ReceivedAt, err = parseTimestamp(receivedAt); err != nil {
			return nil, fmt.Errorf("failed to parse received_at: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracking point rows: %w", err)
	}

	return points, nil
}

// UpsertFlight creates or replaces the flight record and its tracking points
// in a single transaction
func (s *FlightStorage) UpsertFlight(f *flight.RealFlight) error {
	start := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.Exec(`
		INSERT INTO flights (plan_id, indicative, origin, destination,
			flight_plan_date, scheduled_arrival, current_arrival, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(plan_id) DO UPDATE SET
			indicative = excluded.indicative,
			origin = excluded.origin,
			destination = excluded.destination,
			flight_plan_date = excluded.flight_plan_date,
			scheduled_arrival = excluded.scheduled_arrival,
			current_arrival = excluded.current_arrival,
			updated_at = excluded.updated_at
	`, f.PlanID, f.Indicative, f.Origin, f.Destination,
		formatTimestamp(f.FlightPlanDate), formatTimestamp(f.ScheduledArrival),
		formatTimestamp(f.CurrentArrival), formatTimestamp(now), formatTimestamp(now))
	if err != nil {
		return fmt.Errorf("failed to upsert flight %d: %w", f.PlanID, err)
	}

	// Replace the tracking point rows wholesale; the record is the unit of
	// atomicity, matching the keyed-upsert contract
	if _, err := tx.Exec(`DELETE FROM tracking_points WHERE plan_id = ?`, f.PlanID); err != nil {
		return fmt.Errorf("failed to clear tracking points for %d: %w", f.PlanID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO tracking_points (plan_id, position, seq, lat_rad, lon_rad, flight_level, ground_speed, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare tracking point insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range f.TrackingPoints {
		if _, err := stmt.Exec(f.PlanID, i, p.Sequence, p.LatRad, p.LonRad,
			p.FlightLevel, p.GroundSpeed, formatTimestamp(p.ReceivedAt)); err != nil {
			return fmt.Errorf("failed to insert tracking point %d for %d: %w", i, f.PlanID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flight upsert: %w", err)
	}

	s.logger.Debug("Upserted flight",
		logger.Int64("plan_id", f.PlanID),
		logger.Int("points", len(f.TrackingPoints)),
		logger.Duration("duration", time.Since(start)))

	return nil
}

// ListAllFlightKeys returns the plan ids of all stored flights
func (s *FlightStorage) ListAllFlightKeys() ([]int64, error) {
	rows, err := s.db.Query(`SELECT plan_id FROM flights ORDER BY plan_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list flight keys: %w", err)
	}
	defer rows.Close()

	var keys []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan flight key: %w", err)
		}
		keys = append(keys, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flight keys: %w", err)
	}

	return keys, nil
}

// formatTimestamp renders a timestamp for storage
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp parses a stored timestamp
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
