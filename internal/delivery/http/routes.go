package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweet-meenu/urbanpulse-sub000/config"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
)

// SetupRouter creates and configures the Gin router. verifier may be nil
// when Firebase is not configured.
func SetupRouter(cfg *config.Config, handler *Handler, verifier domain.TokenVerifier) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(TracingMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check and metrics endpoints
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/geocode", handler.Geocode)
		api.GET("/location-search", handler.LocationSearch)
		api.GET("/incidents", handler.Incidents)
		api.GET("/tomtom-route", handler.TomTomRoute)
		api.POST("/tomtom-route", handler.TomTomRoute)
		api.GET("/dashboard", handler.Dashboard)
		api.POST("/insights", handler.Insights)
		api.GET("/reports", handler.ListReports)

		// Writes are owned by the caller
		authed := api.Group("", AuthMiddleware(verifier, cfg.Auth.Required))
		{
			authed.POST("/simulations", handler.CreateSimulation)
			authed.GET("/simulations", handler.ListSimulations)
			authed.POST("/reports", handler.CreateReport)
			authed.PATCH("/reports/:id", handler.UpdateReport)
		}
	}

	return router
}
