// Package models defines the request and response bodies of the results API.
package models

import (
	"time"

	"github.com/nwops/dnsaudit/internal/audit"
	"github.com/nwops/dnsaudit/internal/database"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse reports service health.
type StatusResponse struct {
	Status string `json:"status"`
}

// ServerStatsResponse returns runtime and host statistics.
type ServerStatsResponse struct {
	Uptime         string    `json:"uptime"`
	UptimeSeconds  int64     `json:"uptime_seconds"`
	StartTime      time.Time `json:"start_time"`
	GoRoutines     int       `json:"goroutines"`
	MemoryAllocMB  float64   `json:"memory_alloc_mb"`
	NumCPU         int       `json:"num_cpu"`
	Hostname       string    `json:"hostname,omitempty"`
	Platform       string    `json:"platform,omitempty"`
	HostUptimeSec  uint64    `json:"host_uptime_seconds,omitempty"`
	HostMemUsedPct float64   `json:"host_mem_used_pct,omitempty"`
}

// RunResponse describes one persisted audit run.
type RunResponse struct {
	ID           int64     `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	View         string    `json:"view"`
	Source       string    `json:"source"`
	Total        int       `json:"total"`
	Compliant    int       `json:"compliant"`
	NonCompliant int       `json:"non_compliant"`
	Unresolved   int       `json:"unresolved"`
}

// RunFromRecord converts a stored run to its API shape.
func RunFromRecord(r database.Run) RunResponse {
	return RunResponse{
		ID:           r.ID,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		View:         r.View,
		Source:       r.Source,
		Total:        r.Summary.Total,
		Compliant:    r.Summary.Compliant,
		NonCompliant: r.Summary.NonCompliant,
		Unresolved:   r.Summary.Unresolved,
	}
}

// FindingResponse is one audit finding with its traversal chain.
type FindingResponse struct {
	Owner          string   `json:"owner"`
	Classification string   `json:"classification"`
	Reason         string   `json:"reason,omitempty"`
	Address        string   `json:"address,omitempty"`
	Chain          []string `json:"chain"`
	Missing        string   `json:"missing,omitempty"`
}

// FindingFromRecord converts a finding to its API shape.
func FindingFromRecord(f audit.Finding) FindingResponse {
	resp := FindingResponse{
		Owner:          f.Owner,
		Classification: f.Classification.String(),
		Reason:         f.Reason.String(),
		Chain:          f.Chain,
		Missing:        f.Missing,
	}
	if f.Addr.IsValid() {
		resp.Address = f.Addr.String()
	}
	return resp
}

// TriggerResponse acknowledges a requested audit run.
type TriggerResponse struct {
	RunID int64       `json:"run_id"`
	Run   RunResponse `json:"run"`
}
