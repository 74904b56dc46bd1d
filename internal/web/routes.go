package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-threshold/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	configHandler := handlers.NewConfigHandler(s.config)
	thresholdHandler := handlers.NewThresholdHandler(s.config, s.metrics, s.logger)
	calibrationsHandler := handlers.NewCalibrationsHandler(s.logger)

	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Handle("/metrics", handlers.MetricsHandler(s.registry))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", configHandler.Get)
		r.Post("/threshold", thresholdHandler.Calculate)
		r.Get("/calibrations", calibrationsHandler.List)
	})
}
