package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server      ServerConfig      `toml:"server"`      // HTTP server settings
	Logging     LoggingConfig     `toml:"logging"`     // Application logging settings
	Storage     StorageConfig     `toml:"storage"`     // Data persistence settings
	Ingest      IngestConfig      `toml:"ingest"`      // Tracking packet ingestion settings
	Matching    MatchingConfig    `toml:"matching"`    // Real/predicted flight qualification settings
	Punctuality PunctualityConfig `toml:"punctuality"` // Punctuality KPI settings
	Densify     DensifyConfig     `toml:"densify"`     // Route densification settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port             int    `toml:"port"`                  // Primary HTTP port for the server
	Host             string `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	ReadTimeoutSecs  int    `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request
	WriteTimeoutSecs int    `toml:"write_timeout_seconds"` // Maximum duration for writing the response
	IdleTimeoutSecs  int    `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	AdditionalPorts  []int  `toml:"additional_ports"`      // Additional HTTP ports to listen on (useful for multiple interfaces)
	StaticFilesDir   string `toml:"static_files_dir"`      // Directory to serve the status dashboard from (e.g., "www")
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	Type            string `toml:"type"`               // Storage backend type (currently only "sqlite" is supported)
	SQLiteBasePath  string `toml:"sqlite_base_path"`   // Base path for SQLite database files
	MaxPointsInAPI  int    `toml:"max_points_in_api"`  // Maximum number of tracking points to return in flight API responses
}

// IngestConfig contains tracking packet ingestion settings
type IngestConfig struct {
	ToleranceMinutes int `toml:"tolerance_minutes"` // Minutes past the current arrival time a point may still attach to a flight

	// Optional NATS packet source. When enabled, packets arriving on the
	// configured subject are processed exactly like HTTP-posted ones.
	NATSEnabled    bool   `toml:"nats_enabled"`
	NATSURL        string `toml:"nats_url"`         // e.g., nats://localhost:4222
	NATSSubject    string `toml:"nats_subject"`     // Subject carrying packet JSON
	MaxPacketsSec  int    `toml:"max_packets_sec"`  // Rate limit for packet processing (0 = unlimited)
}

// MatchingConfig contains real/predicted flight qualification settings
type MatchingConfig struct {
	RoutePairs     [][]string `toml:"route_pairs"`      // Qualifying airport pairs, each a [start, end] pair, matched bidirectionally
	MaxDistanceNM  float64    `toml:"max_distance_nm"`  // Maximum distance between a boundary tracking point and its declared aerodrome
	MaxFlightLevel float64    `toml:"max_flight_level"` // Maximum flight level for boundary tracking points (ground proximity)
}

// PunctualityConfig contains punctuality KPI settings
type PunctualityConfig struct {
	WindowsMinutes []int `toml:"windows_minutes"` // Tolerance windows in minutes (e.g., [3, 5, 15])
}

// DensifyConfig contains route densification settings
type DensifyConfig struct {
	TargetPointCount int `toml:"target_point_count"` // Point count a densified route should reach
	BatchSize        int `toml:"batch_size"`         // Sub-batch size for batch densification

	// External trajectory simulator. When disabled or unreachable, point
	// generation falls back to linear interpolation per point.
	SimulatorEnabled     bool   `toml:"simulator_enabled"`
	SimulatorURL         string `toml:"simulator_url"`
	SimulatorTimeoutSecs int    `toml:"simulator_timeout_seconds"`
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	portsSeen := map[int]bool{c.Server.Port: true}
	for _, p := range c.Server.AdditionalPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("invalid additional server port: %d", p)
		}
		if portsSeen[p] {
			return fmt.Errorf("duplicate port configured: %d (primary or additional)", p)
		}
		portsSeen[p] = true
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "sqlite"
	}
	if c.Storage.Type != "sqlite" {
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	if c.Storage.SQLiteBasePath == "" {
		c.Storage.SQLiteBasePath = "data"
	}
	if c.Storage.MaxPointsInAPI <= 0 {
		c.Storage.MaxPointsInAPI = 2000
	}

	if c.Ingest.ToleranceMinutes <= 0 {
		c.Ingest.ToleranceMinutes = 30
	}
	if c.Ingest.NATSEnabled {
		if c.Ingest.NATSURL == "" {
			return fmt.Errorf("nats_url is required when nats_enabled is true")
		}
		if c.Ingest.NATSSubject == "" {
			return fmt.Errorf("nats_subject is required when nats_enabled is true")
		}
	}

	for _, pair := range c.Matching.RoutePairs {
		if len(pair) != 2 {
			return fmt.Errorf("invalid route pair %v: expected [start, end]", pair)
		}
	}
	if c.Matching.MaxDistanceNM <= 0 {
		c.Matching.MaxDistanceNM = 2.0
	}
	if c.Matching.MaxFlightLevel <= 0 {
		c.Matching.MaxFlightLevel = 4.0
	}

	if len(c.Punctuality.WindowsMinutes) == 0 {
		c.Punctuality.WindowsMinutes = []int{3, 5, 15}
	}
	for _, w := range c.Punctuality.WindowsMinutes {
		if w <= 0 {
			return fmt.Errorf("invalid punctuality window: %d minutes", w)
		}
	}

	if c.Densify.TargetPointCount <= 0 {
		c.Densify.TargetPointCount = 100
	}
	if c.Densify.BatchSize <= 0 {
		c.Densify.BatchSize = 500
	}
	if c.Densify.SimulatorEnabled && c.Densify.SimulatorURL == "" {
		return fmt.Errorf("simulator_url is required when simulator_enabled is true")
	}
	if c.Densify.SimulatorTimeoutSecs <= 0 {
		c.Densify.SimulatorTimeoutSecs = 10
	}

	return nil
}
