// Package report renders audit findings for the operator. All DNS logic
// lives upstream; this package only formats the findings it is handed.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/nwops/dnsaudit/internal/audit"
)

// Console renders findings as human-readable lines, one per finding, with
// the full CNAME traversal chain. By default only non-compliant and
// unresolved findings are printed; ShowAll includes compliant ones too.
type Console struct {
	w       io.Writer
	showAll bool
	noColor bool
}

// NewConsole creates a renderer writing to w.
func NewConsole(w io.Writer, showAll, noColor bool) *Console {
	return &Console{w: w, showAll: showAll, noColor: noColor}
}

// Render prints the findings followed by a summary line.
func (c *Console) Render(findings []audit.Finding) {
	green := c.sprintf(color.FgGreen)
	red := c.sprintf(color.FgRed)
	yellow := c.sprintf(color.FgYellow)

	for _, f := range findings {
		switch f.Classification {
		case audit.Compliant:
			if !c.showAll {
				continue
			}
			fmt.Fprintf(c.w, "%s %s = %s (%s)\n",
				green("OK  "), f.ChainString(), f.Addr, f.Classification)
		case audit.NonCompliant:
			fmt.Fprintf(c.w, "%s %s = %s (%s)\n",
				red("BAD "), f.ChainString(), f.Addr, f.Classification)
		case audit.Unresolved:
			detail := f.Reason.String()
			if f.Reason == audit.ReasonDangling {
				detail = fmt.Sprintf("dangling, missing %s", f.Missing)
			}
			fmt.Fprintf(c.w, "%s %s (%s: %s)\n",
				yellow("??  "), f.ChainString(), f.Classification, detail)
		}
	}

	s := audit.Summarize(findings)
	fmt.Fprintf(c.w, "%d records audited: %d compliant, %d non-compliant, %d unresolved\n",
		s.Total, s.Compliant, s.NonCompliant, s.Unresolved)
}

func (c *Console) sprintf(attr color.Attribute) func(format string, a ...interface{}) string {
	if c.noColor {
		return fmt.Sprintf
	}
	return color.New(attr).SprintfFunc()
}

// ExitStatus derives the process exit code from a finding set: zero when
// everything resolved inside the allowed ranges, non-zero otherwise.
func ExitStatus(findings []audit.Finding) int {
	for _, f := range findings {
		if f.Classification != audit.Compliant {
			return 1
		}
	}
	return 0
}
