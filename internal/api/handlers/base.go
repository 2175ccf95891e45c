// Package handlers implements the REST endpoint handlers of the results API.
//
// Endpoints:
//   - GET  /api/v1/health                - Health check (service + store)
//   - GET  /api/v1/stats                 - Runtime and host statistics
//   - GET  /api/v1/runs                  - List recent audit runs
//   - GET  /api/v1/runs/:id              - One run's metadata
//   - GET  /api/v1/runs/:id/findings    - One run's findings, filterable
//   - POST /api/v1/audit                 - Trigger a new audit run
//
// All endpoints except /health honor the optional X-API-Key authentication
// configured on the server.
//
// @title dnsaudit results API
// @version 1.0
// @description REST API for browsing DNS compliance audit runs and findings.
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/nwops/dnsaudit/internal/database"
)

// TriggerFunc performs a full audit pass (fetch, index, audit, persist) and
// returns the stored run. It is injected by the command wiring so handlers
// stay free of record-source details.
type TriggerFunc func(ctx context.Context) (database.Run, error)

// Handler contains dependencies for API handlers.
type Handler struct {
	db        *database.DB
	logger    *slog.Logger
	trigger   TriggerFunc
	startTime time.Time
}

// New creates a Handler over the history store. trigger may be nil, in which
// case POST /audit reports the capability as unavailable.
func New(db *database.DB, logger *slog.Logger, trigger TriggerFunc) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:        db,
		logger:    logger,
		trigger:   trigger,
		startTime: time.Now(),
	}
}
