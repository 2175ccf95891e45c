// Package resolve walks CNAME alias chains over a pre-fetched record index.
//
// The CNAME relation is a graph that is not guaranteed acyclic, so the walk
// is an explicit visited-set traversal rather than recursion: chain length is
// bounded only by the size of the index and a cycle is detected the moment a
// name repeats, never by stack exhaustion. The resolver performs no network
// I/O; given the same index it always produces the same outcome.
package resolve

import (
	"fmt"
	"net/netip"

	"github.com/nwops/dnsaudit/internal/records"
)

// OutcomeKind tags the terminal state of a chain walk.
type OutcomeKind int

const (
	// KindResolved means the walk reached a name owning A record(s).
	KindResolved OutcomeKind = iota
	// KindDangling means the walk reached a name with no records at all.
	KindDangling
	// KindCycle means the walk revisited a name without reaching an A record.
	KindCycle
)

func (k OutcomeKind) String() string {
	switch k {
	case KindResolved:
		return "resolved"
	case KindDangling:
		return "dangling"
	case KindCycle:
		return "cycle"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of resolving one name. Chain is the ordered sequence
// of owner names visited, starting at the query name; audit output reproduces
// it verbatim.
//
//   - KindResolved: Addrs holds every A value at the terminal name.
//   - KindDangling: Missing names the target absent from the index; it is
//     also the last element of Chain.
//   - KindCycle: the repeated name is appended to Chain so the closure point
//     is visible.
type Outcome struct {
	Kind    OutcomeKind
	Chain   []string
	Addrs   []netip.Addr
	Missing string
}

// Resolver walks CNAME chains over an immutable record index. It holds no
// per-query state, so a single Resolver is safe for concurrent use.
type Resolver struct {
	index *records.Index
}

// New creates a Resolver over idx.
func New(idx *records.Index) *Resolver {
	return &Resolver{index: idx}
}

// Resolve follows CNAME indirection from start until it finds an A record, a
// name missing from the index, or a previously visited name.
func (r *Resolver) Resolve(start string) Outcome {
	name := records.NormalizeName(start)
	chain := []string{name}
	visited := map[string]struct{}{name: {}}

	for {
		if r.index.HasA(name) {
			recs := r.index.Addresses(name)
			addrs := make([]netip.Addr, 0, len(recs))
			for _, rec := range recs {
				addrs = append(addrs, rec.Addr)
			}
			return Outcome{Kind: KindResolved, Chain: chain, Addrs: addrs}
		}

		target, ok := r.index.CNAME(name)
		if !ok {
			// No A, no CNAME: either the name is absent entirely or it owns
			// nothing followable. Both are a dangling reference.
			return Outcome{Kind: KindDangling, Chain: chain, Missing: name}
		}

		if _, seen := visited[target]; seen {
			// Append the repeated name so the cycle closure is visible.
			chain = append(chain, target)
			return Outcome{Kind: KindCycle, Chain: chain}
		}

		chain = append(chain, target)
		visited[target] = struct{}{}
		name = target
	}
}
