package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/analysis"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/api"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/config"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/densify"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/ingest"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/match"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/storage/sqlite"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/websocket"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load environment overrides from .env if present
	_ = godotenv.Load()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting flight analysis server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	// Generate today's database filename
	today := time.Now().Format("2006-01-02")
	dbFilename := fmt.Sprintf("flights-%s.db", today)
	dbPath := filepath.Join(cfg.Storage.SQLiteBasePath, dbFilename)

	// Ensure the directory exists
	if err := os.MkdirAll(cfg.Storage.SQLiteBasePath, 0755); err != nil {
		log.Error("Failed to create database directory", logger.Error(err), logger.String("path", cfg.Storage.SQLiteBasePath))
		os.Exit(1)
	}

	log.Info("Using daily database", logger.String("path", dbPath))

	// Create SQLite storage
	store, err := sqlite.NewFlightStorage(dbPath, cfg.Storage.MaxPointsInAPI, log)
	if err != nil {
		log.Error("Failed to create SQLite storage", logger.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	// Create WebSocket server
	wsServer := websocket.NewServer(log)
	go wsServer.Run()

	// Create ingestion service
	disamb := ingest.NewDisambiguator(cfg.Ingest.ToleranceMinutes, log)
	ingestService := ingest.NewService(store, disamb, wsServer, log)

	// Create densification service, with the external simulator when enabled
	var simulator densify.Simulator
	if cfg.Densify.SimulatorEnabled {
		simulator = densify.NewHTTPSimulator(
			cfg.Densify.SimulatorURL,
			time.Duration(cfg.Densify.SimulatorTimeoutSecs)*time.Second,
			log,
		)
		log.Info("Using external trajectory simulator", logger.String("url", cfg.Densify.SimulatorURL))
	} else {
		log.Info("External simulator disabled, densification is linear only")
	}
	densifier := densify.NewDensifier(simulator, log)
	densifyService := densify.NewService(store, densifier, cfg.Densify.TargetPointCount, cfg.Densify.BatchSize, wsServer, log)

	// Create analysis service
	matcher := match.NewMatcher(match.Config{
		RoutePairs:     cfg.Matching.RoutePairs,
		MaxDistanceNM:  cfg.Matching.MaxDistanceNM,
		MaxFlightLevel: cfg.Matching.MaxFlightLevel,
	}, log)
	punctuality := analysis.NewPunctualityAnalyzer(cfg.Punctuality.WindowsMinutes, log)
	accuracy := analysis.NewAccuracyAnalyzer(log)
	analysisService := analysis.NewService(store, matcher, punctuality, accuracy, wsServer, log)

	// Start the NATS packet consumer if configured
	var consumer *ingest.Consumer
	if cfg.Ingest.NATSEnabled {
		consumer, err = ingest.NewConsumer(cfg.Ingest.NATSURL, cfg.Ingest.NATSSubject, cfg.Ingest.MaxPacketsSec, ingestService, log)
		if err != nil {
			log.Error("Failed to connect to NATS", logger.Error(err))
			os.Exit(1)
		}
		if err := consumer.Start(); err != nil {
			log.Error("Failed to start NATS consumer", logger.Error(err))
			os.Exit(1)
		}
	}

	// Create API router
	router := api.NewRouter(ingestService, densifyService, analysisService, store, cfg, log, wsServer)

	// --- Setup for multiple HTTP servers ---
	var servers []*http.Server
	allPorts := []int{cfg.Server.Port}
	if len(cfg.Server.AdditionalPorts) > 0 {
		allPorts = append(allPorts, cfg.Server.AdditionalPorts...)
	}

	log.Info("Configured listener ports", logger.Any("ports", allPorts))

	// Start a server for each configured port
	for _, port := range allPorts {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
		server := &http.Server{
			Addr:         addr,
			Handler:      router.Routes(), // All servers use the same main router
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error on startup", logger.String("addr", s.Addr), logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	// Stop the packet consumer first so no new writes arrive mid-shutdown
	if consumer != nil {
		log.Info("Stopping NATS consumer...")
		consumer.Stop()
		log.Info("NATS consumer stopped.")
	}

	// Shutdown all HTTP servers
	log.Info("Shutting down HTTP servers...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", logger.String("addr", srv.Addr), logger.Error(err))
			} else {
				log.Info("HTTP server shutdown complete", logger.String("addr", srv.Addr))
			}
		}(s)
	}
	wg.Wait()

	log.Info("Server fully stopped")
}
