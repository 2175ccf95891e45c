package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/nwops/dnsaudit/internal/audit"
)

// Run is the persisted metadata for one completed audit pass.
type Run struct {
	ID         int64         `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	View       string        `json:"view"`
	Source     string        `json:"source"`
	Summary    audit.Summary `json:"summary"`
}

// SaveRun stores a run and its findings atomically, returning the run ID.
func (db *DB) SaveRun(run Run, findings []audit.Finding) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO audit_runs (started_at, finished_at, view, source, total, compliant, non_compliant, unresolved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.UTC(), run.FinishedAt.UTC(), run.View, run.Source,
		run.Summary.Total, run.Summary.Compliant, run.Summary.NonCompliant, run.Summary.Unresolved,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO findings (run_id, owner, classification, reason, address, chain, missing)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare finding insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range findings {
		chain, err := json.Marshal(f.Chain)
		if err != nil {
			return 0, fmt.Errorf("failed to encode chain for %s: %w", f.Owner, err)
		}
		address := ""
		if f.Addr.IsValid() {
			address = f.Addr.String()
		}
		if _, err := stmt.Exec(runID, f.Owner, f.Classification.String(), f.Reason.String(),
			address, string(chain), f.Missing); err != nil {
			return 0, fmt.Errorf("failed to insert finding for %s: %w", f.Owner, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, view, source, total, compliant, non_compliant, unresolved
		FROM audit_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run by ID or ErrNotFound.
func (db *DB) GetRun(id int64) (Run, error) {
	row := db.conn.QueryRow(`
		SELECT id, started_at, finished_at, view, source, total, compliant, non_compliant, unresolved
		FROM audit_runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return r, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.View, &r.Source,
		&r.Summary.Total, &r.Summary.Compliant, &r.Summary.NonCompliant, &r.Summary.Unresolved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	return r, nil
}

// FindingsForRun returns a run's findings in insertion order, optionally
// filtered to one classification ("" means all).
func (db *DB) FindingsForRun(runID int64, classification string) ([]audit.Finding, error) {
	query := `
		SELECT owner, classification, reason, address, chain, missing
		FROM findings WHERE run_id = ?`
	args := []any{runID}
	if classification != "" {
		cls, err := audit.ParseClassification(classification)
		if err != nil {
			return nil, err
		}
		query += " AND classification = ?"
		args = append(args, cls.String())
	}
	query += " ORDER BY id"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var findings []audit.Finding
	for rows.Next() {
		var (
			f        audit.Finding
			cls      string
			reason   string
			address  string
			chainRaw string
		)
		if err := rows.Scan(&f.Owner, &cls, &reason, &address, &chainRaw, &f.Missing); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		if f.Classification, err = audit.ParseClassification(cls); err != nil {
			return nil, fmt.Errorf("corrupt finding row for %s: %w", f.Owner, err)
		}
		if f.Reason, err = audit.ParseReason(reason); err != nil {
			return nil, fmt.Errorf("corrupt finding row for %s: %w", f.Owner, err)
		}
		if address != "" {
			addr, err := netip.ParseAddr(address)
			if err != nil {
				return nil, fmt.Errorf("corrupt finding row for %s: %w", f.Owner, err)
			}
			f.Addr = addr
		}
		if err := json.Unmarshal([]byte(chainRaw), &f.Chain); err != nil {
			return nil, fmt.Errorf("corrupt finding row for %s: %w", f.Owner, err)
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}
