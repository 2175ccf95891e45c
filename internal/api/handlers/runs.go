package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nwops/dnsaudit/internal/api/models"
	"github.com/nwops/dnsaudit/internal/database"
)

// ListRuns godoc
// @Summary List audit runs
// @Description Returns recent audit runs, newest first
// @Tags runs
// @Produce json
// @Param limit query int false "Maximum runs to return (default 50)"
// @Success 200 {array} models.RunResponse
// @Security ApiKeyAuth
// @Router /runs [get]
func (h *Handler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, err := h.db.ListRuns(limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list runs"})
		return
	}

	resp := make([]models.RunResponse, 0, len(runs))
	for _, r := range runs {
		resp = append(resp, models.RunFromRecord(r))
	}
	c.JSON(http.StatusOK, resp)
}

// GetRun godoc
// @Summary Get one audit run
// @Tags runs
// @Produce json
// @Param id path int true "Run ID"
// @Success 200 {object} models.RunResponse
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /runs/{id} [get]
func (h *Handler) GetRun(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid run id"})
		return
	}

	run, err := h.db.GetRun(id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "run not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to get run", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get run"})
		return
	}
	c.JSON(http.StatusOK, models.RunFromRecord(run))
}

// RunFindings godoc
// @Summary Findings of one audit run
// @Description Returns a run's findings with full traversal chains
// @Tags runs
// @Produce json
// @Param id path int true "Run ID"
// @Param classification query string false "Filter: compliant, non-compliant, unresolved"
// @Success 200 {array} models.FindingResponse
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /runs/{id}/findings [get]
func (h *Handler) RunFindings(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid run id"})
		return
	}

	if _, err := h.db.GetRun(id); errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "run not found"})
		return
	}

	findings, err := h.db.FindingsForRun(id, c.Query("classification"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	resp := make([]models.FindingResponse, 0, len(findings))
	for _, f := range findings {
		resp = append(resp, models.FindingFromRecord(f))
	}
	c.JSON(http.StatusOK, resp)
}

// TriggerAudit godoc
// @Summary Trigger an audit run
// @Description Fetches the record set, audits it, and persists the result
// @Tags runs
// @Produce json
// @Success 201 {object} models.TriggerResponse
// @Failure 502 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /audit [post]
func (h *Handler) TriggerAudit(c *gin.Context) {
	if h.trigger == nil {
		c.JSON(http.StatusNotImplemented, models.ErrorResponse{Error: "audit trigger not configured"})
		return
	}

	run, err := h.trigger(c.Request.Context())
	if err != nil {
		h.logger.Error("triggered audit failed", "error", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, models.TriggerResponse{
		RunID: run.ID,
		Run:   models.RunFromRecord(run),
	})
}
