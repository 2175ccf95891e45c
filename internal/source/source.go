// Package source provides the record sources an audit run can pull from:
// the Infoblox NIOS WAPI for a live managed DNS view, or an RFC 1035 master
// file for offline audits.
//
// A source delivers the complete A/CNAME record set for a view before any
// resolution starts; fetch failures are fatal for the run (no partial audit
// is ever attempted over a partial record set).
package source

import (
	"context"
	"fmt"

	"github.com/nwops/dnsaudit/internal/records"
)

// Source supplies the full record set for a configured DNS view.
type Source interface {
	// Fetch returns every A and CNAME record in the view. On failure it
	// returns an *UnavailableError and no records.
	Fetch(ctx context.Context) ([]records.Record, error)

	// Name identifies the source in logs and persisted run metadata.
	Name() string
}

// UnavailableError reports that the record source could not deliver the
// record set. It aborts the audit run before any resolution work.
type UnavailableError struct {
	Op  string // what the source was doing, e.g. "authenticate"
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("record source unavailable: %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func unavailable(op string, err error) *UnavailableError {
	return &UnavailableError{Op: op, Err: err}
}
