package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/analysis"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/config"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/densify"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/ingest"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/websocket"
	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// Router builds the HTTP routing tree for the API and the status dashboard
type Router struct {
	handler  *Handler
	wsServer *websocket.Server
	config   *config.Config
	logger   *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(ingestService *ingest.Service, densifyService *densify.Service, analysisService *analysis.Service, store flight.Storage, cfg *config.Config, log *logger.Logger, wsServer *websocket.Server) *Router {
	return &Router{
		handler:  NewHandler(ingestService, densifyService, analysisService, store, cfg, log),
		wsServer: wsServer,
		config:   cfg,
		logger:   log.Named("api-router"),
	}
}

// Routes returns the configured routing tree
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(api chi.Router) {
		// Ingestion boundary
		api.Post("/packets", r.handler.PostPacket)
		api.Post("/predicted", r.handler.PostPredicted)

		// Stored data
		api.Get("/flights", r.handler.GetAllFlights)
		api.Get("/flights/{planID}", r.handler.GetFlightByID)
		api.Get("/predicted/flights", r.handler.GetAllPredicted)
		api.Get("/predicted/flights/{instanceID}", r.handler.GetPredictedByID)

		// Densification
		api.Post("/predicted/flights/{instanceID}/densify", r.handler.PostDensifyFlight)
		api.Post("/densify/batch", r.handler.PostDensifyBatch)
		api.Post("/densify/all", r.handler.PostDensifyAll)

		// Analysis boundary
		api.Post("/analysis/punctuality", r.handler.PostPunctualityAnalysis)
		api.Post("/analysis/accuracy", r.handler.PostAccuracyAnalysis)

		// Operational state
		api.Get("/stats", r.handler.GetStats)
		api.Get("/status", r.handler.GetStatus)

		api.Get("/ws", r.wsServer.HandleConnection)
	})

	// Status dashboard, served dynamically so edits show up without restarts
	if dir := r.config.Server.StaticFilesDir; dir != "" {
		staticHandler := NewStaticFileHandler(dir, r.logger)
		router.Handle("/*", staticHandler)
		r.logger.Info("Serving static files", logger.String("dir", dir))
	}

	return router
}
