// Package records defines the DNS record model consumed by the auditor and
// the in-memory index the chain resolver walks.
//
// Only A and CNAME records participate in the audit; everything else a
// record source may encounter is discarded before it reaches this package.
// Owner names are case-insensitive per RFC 1035 and are normalized to
// lowercase without a trailing dot at construction time, so lookups never
// have to re-normalize.
package records

import (
	"fmt"
	"net/netip"
	"strings"
)

// RecordType represents the DNS resource record types the auditor handles.
type RecordType uint16

const (
	TypeA     RecordType = 1 // IPv4 address
	TypeCNAME RecordType = 5 // Canonical name (alias)
)

func (t RecordType) String() string {
	switch t {
	case TypeA:
		return "A"
	case TypeCNAME:
		return "CNAME"
	default:
		return fmt.Sprintf("TYPE%d", uint16(t))
	}
}

// Record is a single owner-name/value pair from the fetched record set.
// For A records Addr carries the value; for CNAME records Target does.
type Record struct {
	Owner  string
	Type   RecordType
	Addr   netip.Addr // valid only when Type == TypeA
	Target string     // set only when Type == TypeCNAME
}

// NewA builds an A record, normalizing the owner name.
func NewA(owner string, addr netip.Addr) Record {
	return Record{Owner: NormalizeName(owner), Type: TypeA, Addr: addr.Unmap()}
}

// NewCNAME builds a CNAME record, normalizing both owner and target.
func NewCNAME(owner, target string) Record {
	return Record{Owner: NormalizeName(owner), Type: TypeCNAME, Target: NormalizeName(target)}
}

func (r Record) String() string {
	if r.Type == TypeCNAME {
		return fmt.Sprintf("%s CNAME %s", r.Owner, r.Target)
	}
	return fmt.Sprintf("%s A %s", r.Owner, r.Addr)
}

// NormalizeName converts a domain name to lowercase and removes the trailing
// dot, making all lookups case-insensitive per RFC 1035.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(name, ".")
}
