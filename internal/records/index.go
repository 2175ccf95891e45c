package records

import (
	"fmt"
	"sort"
)

// DuplicateCNAMEError reports two CNAME records at the same owner name.
// DNS allows at most one; picking a winner silently would hide a
// data-integrity problem, so index construction fails instead.
type DuplicateCNAMEError struct {
	Owner   string
	Targets []string // targets seen, in input order
}

func (e *DuplicateCNAMEError) Error() string {
	return fmt.Sprintf("duplicate CNAME records for %s (targets: %v)", e.Owner, e.Targets)
}

// AmbiguousRecordError reports an owner name carrying both an A record and a
// CNAME. The combination is invalid per RFC 1034 and there is no safe
// precedence to guess, so it is treated the same way as a duplicate CNAME.
type AmbiguousRecordError struct {
	Owner string
}

func (e *AmbiguousRecordError) Error() string {
	return fmt.Sprintf("owner %s has both A and CNAME records", e.Owner)
}

// entry holds everything indexed at one owner name. Because Build rejects
// A+CNAME coexistence, at most one of addrs/target is populated.
type entry struct {
	records  []Record
	hasA     bool
	cname    string
	hasCNAME bool
}

// Index is a read-only lookup structure over a fetched record set, keyed by
// normalized owner name. It is built once per audit run and never mutated,
// which makes it safe to share across concurrent chain resolutions.
type Index struct {
	byOwner map[string]entry
	owners  []string // sorted; fixes iteration order for the run
}

// Build groups records by normalized owner name and validates the record
// graph. It fails with *DuplicateCNAMEError when an owner has more than one
// CNAME and with *AmbiguousRecordError when an owner mixes A and CNAME
// records. On error no partial index is returned.
func Build(recs []Record) (*Index, error) {
	byOwner := make(map[string]entry, len(recs))

	for _, rec := range recs {
		owner := NormalizeName(rec.Owner)
		e := byOwner[owner]

		switch rec.Type {
		case TypeA:
			if e.hasCNAME {
				return nil, &AmbiguousRecordError{Owner: owner}
			}
			e.hasA = true
		case TypeCNAME:
			target := NormalizeName(rec.Target)
			if e.hasA {
				return nil, &AmbiguousRecordError{Owner: owner}
			}
			if e.hasCNAME {
				return nil, &DuplicateCNAMEError{Owner: owner, Targets: []string{e.cname, target}}
			}
			e.cname = target
			e.hasCNAME = true
			rec.Target = target
		default:
			// Record sources filter to A/CNAME before Build; anything else
			// is a programming error upstream, not bad DNS data.
			return nil, fmt.Errorf("unsupported record type %s for %s", rec.Type, owner)
		}

		rec.Owner = owner
		e.records = append(e.records, rec)
		byOwner[owner] = e
	}

	owners := make([]string, 0, len(byOwner))
	for owner := range byOwner {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	return &Index{byOwner: byOwner, owners: owners}, nil
}

// Lookup returns the records at name, or an empty slice when the name is
// unknown. Absence is not an error: the resolver uses it as the dangling
// signal.
func (idx *Index) Lookup(name string) []Record {
	e, ok := idx.byOwner[NormalizeName(name)]
	if !ok {
		return nil
	}
	out := make([]Record, len(e.records))
	copy(out, e.records)
	return out
}

// Addresses returns the A record values at name, in input order.
func (idx *Index) Addresses(name string) []Record {
	e, ok := idx.byOwner[NormalizeName(name)]
	if !ok || !e.hasA {
		return nil
	}
	out := make([]Record, 0, len(e.records))
	for _, rec := range e.records {
		if rec.Type == TypeA {
			out = append(out, rec)
		}
	}
	return out
}

// CNAME returns the alias target at name, if one exists.
func (idx *Index) CNAME(name string) (string, bool) {
	e, ok := idx.byOwner[NormalizeName(name)]
	if !ok || !e.hasCNAME {
		return "", false
	}
	return e.cname, true
}

// HasA reports whether name owns at least one A record.
func (idx *Index) HasA(name string) bool {
	e, ok := idx.byOwner[NormalizeName(name)]
	return ok && e.hasA
}

// OwnerNames returns every indexed owner name in sorted order. The order is
// stable for a given input so repeated audits of an unchanged record set
// produce byte-identical reports.
func (idx *Index) OwnerNames() []string {
	out := make([]string, len(idx.owners))
	copy(out, idx.owners)
	return out
}

// Len returns the number of distinct owner names in the index.
func (idx *Index) Len() int {
	return len(idx.owners)
}
