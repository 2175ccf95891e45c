// Package audit implements the compliance auditor: for every head name in a
// record index it resolves the effective target address(es) and classifies
// each against the allowed-network set, emitting findings with full
// provenance.
//
// Every owner name that carries an A or CNAME record is a head. The auditor
// computes all classifications; filtering to the "interesting" ones is a
// presentation concern left to the report consumer.
package audit

import (
	"context"
	"log/slog"
	"net/netip"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/nwops/dnsaudit/internal/netset"
	"github.com/nwops/dnsaudit/internal/records"
	"github.com/nwops/dnsaudit/internal/resolve"
)

// Auditor orchestrates a single audit pass. It holds no state beyond its
// configuration; all run state lives in the index and set passed to Run.
type Auditor struct {
	logger  *slog.Logger
	workers int
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithWorkers caps the number of concurrent chain resolutions. Values below
// one fall back to the CPU count.
func WithWorkers(n int) Option {
	return func(a *Auditor) {
		a.workers = n
	}
}

// WithLogger attaches a logger for per-run progress output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Auditor) {
		a.logger = logger
	}
}

// New creates an Auditor.
func New(opts ...Option) *Auditor {
	a := &Auditor{}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers < 1 {
		a.workers = runtime.NumCPU()
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Run audits every head name in idx against allowed and returns the complete
// finding sequence. Per-head resolutions run concurrently (the index and set
// are immutable, so no locking is needed), but findings are reassembled in
// sorted head order: the same input always yields byte-identical output.
//
// Per-name resolution problems are findings, never errors; Run only returns
// an error when ctx is cancelled.
func (a *Auditor) Run(ctx context.Context, idx *records.Index, allowed *netset.Set) ([]Finding, error) {
	resolver := resolve.New(idx)

	heads := make([]string, 0, idx.Len())
	for _, owner := range idx.OwnerNames() {
		if _, hasCNAME := idx.CNAME(owner); hasCNAME || idx.HasA(owner) {
			heads = append(heads, owner)
		}
	}

	a.logger.Debug("audit pass starting",
		"owners", idx.Len(),
		"heads", len(heads),
		"ranges", allowed.Len(),
		"workers", a.workers,
	)

	perHead := make([][]Finding, len(heads))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, head := range heads {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perHead[i] = a.auditHead(resolver, idx, allowed, head)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var findings []Finding
	for _, fs := range perHead {
		findings = append(findings, fs...)
	}

	a.logger.Debug("audit pass complete", "findings", len(findings))
	return findings, nil
}

// auditHead produces the findings for one head: one per resolution target
// for resolved chains, exactly one for dangling or looping chains.
func (a *Auditor) auditHead(resolver *resolve.Resolver, idx *records.Index, allowed *netset.Set, head string) []Finding {
	if idx.HasA(head) {
		// Direct A records: the chain is the single-element head.
		recs := idx.Addresses(head)
		findings := make([]Finding, 0, len(recs))
		for _, rec := range recs {
			findings = append(findings, Finding{
				Owner:          head,
				Classification: classify(allowed, rec.Addr),
				Addr:           rec.Addr,
				Chain:          []string{head},
			})
		}
		return findings
	}

	out := resolver.Resolve(head)
	switch out.Kind {
	case resolve.KindResolved:
		findings := make([]Finding, 0, len(out.Addrs))
		for _, addr := range out.Addrs {
			findings = append(findings, Finding{
				Owner:          head,
				Classification: classify(allowed, addr),
				Addr:           addr,
				Chain:          out.Chain,
			})
		}
		return findings
	case resolve.KindDangling:
		return []Finding{{
			Owner:          head,
			Classification: Unresolved,
			Reason:         ReasonDangling,
			Chain:          out.Chain,
			Missing:        out.Missing,
		}}
	case resolve.KindCycle:
		return []Finding{{
			Owner:          head,
			Classification: Unresolved,
			Reason:         ReasonCycle,
			Chain:          out.Chain,
		}}
	}
	return nil
}

func classify(allowed *netset.Set, addr netip.Addr) Classification {
	if allowed.Contains(addr) {
		return Compliant
	}
	return NonCompliant
}

// Summary aggregates finding counts for logging and persistence.
type Summary struct {
	Total        int
	Compliant    int
	NonCompliant int
	Unresolved   int
}

// Summarize counts findings per classification.
func Summarize(findings []Finding) Summary {
	s := Summary{Total: len(findings)}
	for _, f := range findings {
		switch f.Classification {
		case Compliant:
			s.Compliant++
		case NonCompliant:
			s.NonCompliant++
		case Unresolved:
			s.Unresolved++
		}
	}
	return s
}
