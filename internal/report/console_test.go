package report

import (
	"bytes"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nwops/dnsaudit/internal/audit"
)

func sampleFindings() []audit.Finding {
	return []audit.Finding{
		{
			Owner:          "good.example.com",
			Classification: audit.Compliant,
			Addr:           netip.MustParseAddr("10.0.0.1"),
			Chain:          []string{"good.example.com"},
		},
		{
			Owner:          "leak.example.com",
			Classification: audit.NonCompliant,
			Addr:           netip.MustParseAddr("203.0.113.5"),
			Chain:          []string{"leak.example.com", "ext.example.com"},
		},
		{
			Owner:          "orphan.example.com",
			Classification: audit.Unresolved,
			Reason:         audit.ReasonDangling,
			Chain:          []string{"orphan.example.com", "ghost.example.com"},
			Missing:        "ghost.example.com",
		},
		{
			Owner:          "loop.example.com",
			Classification: audit.Unresolved,
			Reason:         audit.ReasonCycle,
			Chain:          []string{"loop.example.com", "back.example.com", "loop.example.com"},
		},
	}
}

func TestRenderDefaultHidesCompliant(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf, false, true).Render(sampleFindings())
	out := buf.String()

	assert.NotContains(t, out, "good.example.com")
	assert.Contains(t, out, "leak.example.com -> ext.example.com = 203.0.113.5")
	assert.Contains(t, out, "orphan.example.com -> ghost.example.com")
	assert.Contains(t, out, "missing ghost.example.com")
	assert.Contains(t, out, "loop.example.com -> back.example.com -> loop.example.com")
	assert.Contains(t, out, "cycle")
	assert.Contains(t, out, "4 records audited: 1 compliant, 1 non-compliant, 2 unresolved")
}

func TestRenderShowAll(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf, true, true).Render(sampleFindings())

	assert.Contains(t, buf.String(), "good.example.com = 10.0.0.1 (compliant)")
}

func TestRenderChainVerbatim(t *testing.T) {
	var buf bytes.Buffer
	findings := []audit.Finding{{
		Owner:          "a.example.com",
		Classification: audit.NonCompliant,
		Addr:           netip.MustParseAddr("198.51.100.9"),
		Chain:          []string{"a.example.com", "b.example.com", "c.example.com"},
	}}
	NewConsole(&buf, false, true).Render(findings)

	assert.Contains(t, buf.String(), "a.example.com -> b.example.com -> c.example.com")
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		findings []audit.Finding
		want     int
	}{
		{
			name:     "empty set is clean",
			findings: nil,
			want:     0,
		},
		{
			name: "all compliant",
			findings: []audit.Finding{
				{Classification: audit.Compliant},
				{Classification: audit.Compliant},
			},
			want: 0,
		},
		{
			name: "one non-compliant",
			findings: []audit.Finding{
				{Classification: audit.Compliant},
				{Classification: audit.NonCompliant},
			},
			want: 1,
		},
		{
			name: "unresolved also fails",
			findings: []audit.Finding{
				{Classification: audit.Unresolved, Reason: audit.ReasonCycle},
			},
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitStatus(tt.findings))
		})
	}
}
