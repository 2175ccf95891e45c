package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/nwops/dnsaudit/internal/api/handlers"
	"github.com/nwops/dnsaudit/internal/api/middleware"
	"github.com/nwops/dnsaudit/internal/config"

	_ "github.com/nwops/dnsaudit/internal/api/docs" // swagger docs
)

// RegisterRoutes wires all endpoints onto the router.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	// Swagger UI at /swagger/*
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")

	// Health stays reachable without a key for probes.
	api.GET("/health", h.Health)

	if cfg != nil && cfg.API.APIKey != "" {
		api.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	api.GET("/stats", h.Stats)

	api.GET("/runs", h.ListRuns)
	api.GET("/runs/:id", h.GetRun)
	api.GET("/runs/:id/findings", h.RunFindings)

	api.POST("/audit", h.TriggerAudit)
}
