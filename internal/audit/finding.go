package audit

import (
	"fmt"
	"net/netip"
	"strings"
)

// Classification is the compliance verdict for one finding.
type Classification int

const (
	// Compliant means the terminal address lies inside an allowed range.
	Compliant Classification = iota
	// NonCompliant means the terminal address lies outside every allowed range.
	NonCompliant
	// Unresolved means no terminal address exists; see Reason.
	Unresolved
)

func (c Classification) String() string {
	switch c {
	case Compliant:
		return "compliant"
	case NonCompliant:
		return "non-compliant"
	case Unresolved:
		return "unresolved"
	default:
		return fmt.Sprintf("classification(%d)", int(c))
	}
}

// ParseClassification maps the string form back to a Classification. Used by
// the results store and API when filtering persisted findings.
func ParseClassification(s string) (Classification, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compliant":
		return Compliant, nil
	case "non-compliant", "noncompliant":
		return NonCompliant, nil
	case "unresolved":
		return Unresolved, nil
	default:
		return 0, fmt.Errorf("unknown classification %q", s)
	}
}

// Reason distinguishes why a finding is unresolved.
type Reason int

const (
	// ReasonNone applies to resolved (compliant or non-compliant) findings.
	ReasonNone Reason = iota
	// ReasonDangling marks a chain ending at a name absent from the record set.
	ReasonDangling
	// ReasonCycle marks a chain that revisited a name.
	ReasonCycle
)

// ParseReason maps the string form back to a Reason.
func ParseReason(s string) (Reason, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ReasonNone, nil
	case "dangling":
		return ReasonDangling, nil
	case "cycle":
		return ReasonCycle, nil
	default:
		return 0, fmt.Errorf("unknown reason %q", s)
	}
}

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonDangling:
		return "dangling"
	case ReasonCycle:
		return "cycle"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Finding is one audit result: a head name, its verdict, the terminal
// address when one exists, and the full traversal chain. Findings are
// immutable once emitted; the report consumer renders them without
// re-deriving any DNS logic.
type Finding struct {
	Owner          string
	Classification Classification
	Reason         Reason
	Addr           netip.Addr // valid only when Classification != Unresolved
	Chain          []string
	Missing        string // set only when Reason == ReasonDangling
}

// ChainString renders the traversal chain in the "a -> b -> c" form used by
// the console report.
func (f Finding) ChainString() string {
	return strings.Join(f.Chain, " -> ")
}
