package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
	_ "modernc.org/sqlite"
)

// FlightStorage is a SQLite-based implementation of flight.Storage
type FlightStorage struct {
	db             *sql.DB
	logger         *logger.Logger
	maxPointsInAPI int
}

// NewFlightStorage creates a new SQLite-based flight storage
func NewFlightStorage(dbPath string, maxPointsInAPI int, log *logger.Logger) (*FlightStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	// Open the database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool limits
	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	// Set pragmas for better performance and concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Create tables if they don't exist
	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	storage := &FlightStorage{
		db:             db,
		logger:         storageLogger,
		maxPointsInAPI: maxPointsInAPI,
	}

	return storage, nil
}

// Close closes the database connection
func (s *FlightStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetDB returns the database connection
func (s *FlightStorage) GetDB() *sql.DB {
	return s.db
}

// initDatabase initializes the database schema
func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Info("Initializing database schema")

	// Create flights table for real flight records
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flights (
			plan_id INTEGER PRIMARY KEY,
			indicative TEXT,
			origin TEXT,
			destination TEXT,
			flight_plan_date TIMESTAMP,
			scheduled_arrival TIMESTAMP,
			current_arrival TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create flights table: %w", err)
	}

	// Create tracking_points table; position preserves attachment order,
	// seq is the source packet's sequence number kept as metadata
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS tracking_points (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			plan_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			seq INTEGER,
			lat_rad REAL,
			lon_rad REAL,
			flight_level REAL,
			ground_speed REAL,
			received_at TIMESTAMP,
			FOREIGN KEY (plan_id) REFERENCES flights(plan_id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create tracking_points table: %w", err)
	}

	// Create predicted_flights table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS predicted_flights (
			instance_id INTEGER PRIMARY KEY,
			indicative TEXT,
			departure TEXT,
			arrival TEXT,
			time_window TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create predicted_flights table: %w", err)
	}

	// Create route_elements table; position preserves route order
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS route_elements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			instance_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			element_id INTEGER,
			lat_deg REAL,
			lon_deg REAL,
			altitude_m REAL,
			speed_kts REAL,
			eet_minutes REAL,
			type TEXT,
			interpolated INTEGER DEFAULT 0,
			mag_track_deg REAL,
			FOREIGN KEY (instance_id) REFERENCES predicted_flights(instance_id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create route_elements table: %w", err)
	}

	// Create route_segments table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS route_segments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			instance_id INTEGER NOT NULL,
			from_id INTEGER,
			to_id INTEGER,
			distance_nm REAL,
			FOREIGN KEY (instance_id) REFERENCES predicted_flights(instance_id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create route_segments table: %w", err)
	}

	// Create indexes for efficient querying
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_tracking_points_plan_position ON tracking_points(plan_id, position)`)
	if err != nil {
		return fmt.Errorf("failed to create index on tracking_points.plan_id_position: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_flights_indicative ON flights(indicative)`)
	if err != nil {
		return fmt.Errorf("failed to create index on flights.indicative: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_route_elements_instance_position ON route_elements(instance_id, position)`)
	if err != nil {
		return fmt.Errorf("failed to create index on route_elements.instance_id_position: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_route_segments_instance ON route_segments(instance_id)`)
	if err != nil {
		return fmt.Errorf("failed to create index on route_segments.instance_id: %w", err)
	}

	log.Info("Database schema initialized successfully")
	return nil
}
