package audit

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwops/dnsaudit/internal/netset"
	"github.com/nwops/dnsaudit/internal/records"
)

func mustSet(t *testing.T, cidrs ...string) *netset.Set {
	t.Helper()
	set, err := netset.ParseSet(cidrs)
	require.NoError(t, err)
	return set
}

func mustIndex(t *testing.T, recs ...records.Record) *records.Index {
	t.Helper()
	idx, err := records.Build(recs)
	require.NoError(t, err)
	return idx
}

func run(t *testing.T, idx *records.Index, set *netset.Set, opts ...Option) []Finding {
	t.Helper()
	findings, err := New(opts...).Run(context.Background(), idx, set)
	require.NoError(t, err)
	return findings
}

func TestRunDirectACompliant(t *testing.T) {
	// Scenario: allowed {10.0.0.0/8}, www.example.com A 10.1.2.3.
	idx := mustIndex(t, records.NewA("www.example.com", netip.MustParseAddr("10.1.2.3")))
	findings := run(t, idx, mustSet(t, "10.0.0.0/8"))

	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, "www.example.com", f.Owner)
	assert.Equal(t, Compliant, f.Classification)
	assert.Equal(t, ReasonNone, f.Reason)
	assert.Equal(t, "10.1.2.3", f.Addr.String())
	assert.Equal(t, []string{"www.example.com"}, f.Chain)
}

func TestRunChainNonCompliant(t *testing.T) {
	// Scenario: a.example.com CNAME b.example.com, b A 203.0.113.5,
	// allowed {10.0.0.0/8}.
	idx := mustIndex(t,
		records.NewCNAME("a.example.com", "b.example.com"),
		records.NewA("b.example.com", netip.MustParseAddr("203.0.113.5")),
	)
	findings := run(t, idx, mustSet(t, "10.0.0.0/8"))

	require.Len(t, findings, 2)

	// Sorted head order: a.example.com first, then b.example.com.
	chainHead := findings[0]
	assert.Equal(t, "a.example.com", chainHead.Owner)
	assert.Equal(t, NonCompliant, chainHead.Classification)
	assert.Equal(t, "203.0.113.5", chainHead.Addr.String())
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, chainHead.Chain)

	// b.example.com is itself a head with a direct A record.
	direct := findings[1]
	assert.Equal(t, "b.example.com", direct.Owner)
	assert.Equal(t, NonCompliant, direct.Classification)
	assert.Equal(t, []string{"b.example.com"}, direct.Chain)
}

func TestRunCycleUnresolved(t *testing.T) {
	idx := mustIndex(t,
		records.NewCNAME("x.example.com", "y.example.com"),
		records.NewCNAME("y.example.com", "x.example.com"),
	)
	findings := run(t, idx, mustSet(t, "10.0.0.0/8"))

	require.Len(t, findings, 2)
	f := findings[0]
	assert.Equal(t, "x.example.com", f.Owner)
	assert.Equal(t, Unresolved, f.Classification)
	assert.Equal(t, ReasonCycle, f.Reason)
	assert.Equal(t, []string{"x.example.com", "y.example.com", "x.example.com"}, f.Chain)
	assert.False(t, f.Addr.IsValid())
}

func TestRunDanglingUnresolved(t *testing.T) {
	idx := mustIndex(t,
		records.NewCNAME("orphan.example.com", "ghost.example.com"),
	)
	findings := run(t, idx, mustSet(t, "10.0.0.0/8"))

	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, Unresolved, f.Classification)
	assert.Equal(t, ReasonDangling, f.Reason)
	assert.Equal(t, []string{"orphan.example.com", "ghost.example.com"}, f.Chain)
	assert.Equal(t, "ghost.example.com", f.Missing)
}

func TestRunMultipleAddressesPerHead(t *testing.T) {
	idx := mustIndex(t,
		records.NewA("multi.example.com", netip.MustParseAddr("10.0.0.1")),
		records.NewA("multi.example.com", netip.MustParseAddr("198.51.100.7")),
	)
	findings := run(t, idx, mustSet(t, "10.0.0.0/8"))

	require.Len(t, findings, 2)
	assert.Equal(t, Compliant, findings[0].Classification)
	assert.Equal(t, "10.0.0.1", findings[0].Addr.String())
	assert.Equal(t, NonCompliant, findings[1].Classification)
	assert.Equal(t, "198.51.100.7", findings[1].Addr.String())
}

func TestRunCoversEveryHead(t *testing.T) {
	idx := mustIndex(t,
		records.NewA("a.example.com", netip.MustParseAddr("10.0.0.1")),
		records.NewCNAME("b.example.com", "a.example.com"),
		records.NewCNAME("c.example.com", "missing.example.com"),
	)
	findings := run(t, idx, mustSet(t, "10.0.0.0/8"))

	owners := make([]string, 0, len(findings))
	for _, f := range findings {
		owners = append(owners, f.Owner)
	}
	assert.Equal(t, []string{"a.example.com", "b.example.com", "c.example.com"}, owners)
}

func TestRunIdempotent(t *testing.T) {
	idx := mustIndex(t,
		records.NewA("a.example.com", netip.MustParseAddr("10.0.0.1")),
		records.NewCNAME("b.example.com", "a.example.com"),
		records.NewCNAME("c.example.com", "d.example.com"),
		records.NewCNAME("d.example.com", "c.example.com"),
		records.NewA("e.example.com", netip.MustParseAddr("203.0.113.9")),
	)
	set := mustSet(t, "10.0.0.0/8")

	first := run(t, idx, set)
	second := run(t, idx, set)
	assert.Equal(t, first, second)
}

func TestRunDeterministicAcrossWorkerCounts(t *testing.T) {
	idx := mustIndex(t,
		records.NewA("a.example.com", netip.MustParseAddr("10.0.0.1")),
		records.NewCNAME("b.example.com", "a.example.com"),
		records.NewCNAME("c.example.com", "b.example.com"),
		records.NewA("d.example.com", netip.MustParseAddr("203.0.113.9")),
		records.NewCNAME("e.example.com", "ghost.example.com"),
	)
	set := mustSet(t, "10.0.0.0/8")

	serial := run(t, idx, set, WithWorkers(1))
	parallel := run(t, idx, set, WithWorkers(8))
	assert.Equal(t, serial, parallel)
}

func TestRunCancelledContext(t *testing.T) {
	idx := mustIndex(t,
		records.NewA("a.example.com", netip.MustParseAddr("10.0.0.1")),
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Run(ctx, idx, mustSet(t, "10.0.0.0/8"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize(t *testing.T) {
	findings := []Finding{
		{Classification: Compliant},
		{Classification: NonCompliant},
		{Classification: NonCompliant},
		{Classification: Unresolved, Reason: ReasonCycle},
	}
	s := Summarize(findings)
	assert.Equal(t, Summary{Total: 4, Compliant: 1, NonCompliant: 2, Unresolved: 1}, s)
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		in      string
		want    Classification
		wantErr bool
	}{
		{in: "compliant", want: Compliant},
		{in: "non-compliant", want: NonCompliant},
		{in: "NonCompliant", want: NonCompliant},
		{in: " unresolved ", want: Unresolved},
		{in: "bogus", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClassification(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
