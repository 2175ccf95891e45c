// Package netset implements the allowed-network index used by the audit.
//
// A Set holds the administrator-declared IPv4 CIDR ranges and answers
// membership queries for individual addresses. Ranges may overlap; an address
// is in the set when any range contains it. The set is built once per audit
// run and never modified afterwards, so it is safe to share across
// concurrent resolutions without locking.
package netset

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"
)

// InvalidRangeError reports an allow-list entry that could not be parsed as
// an IPv4 CIDR range. A malformed allow-list is fatal for the whole audit
// run: a partially honored allow-list is worse than none.
type InvalidRangeError struct {
	Text   string // the offending input, verbatim
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid network range %q: %s", e.Text, e.Reason)
}

// Range is a single IPv4 network in CIDR form. Host bits of the stored
// address are always zero; normalization happens at construction time.
type Range struct {
	prefix netip.Prefix
}

// ParseRange parses text in address/prefixlen form (e.g. "10.0.0.0/8") into
// a Range. A bare address with no prefix length is accepted as a /32 host
// route. IPv6 addresses, prefix lengths outside [0,32], and anything else
// unparseable produce an *InvalidRangeError.
func ParseRange(text string) (Range, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Range{}, &InvalidRangeError{Text: text, Reason: "empty entry"}
	}

	if !strings.Contains(text, "/") {
		addr, err := netip.ParseAddr(text)
		if err != nil {
			return Range{}, &InvalidRangeError{Text: text, Reason: "not a valid address or CIDR"}
		}
		if !addr.Is4() {
			return Range{}, &InvalidRangeError{Text: text, Reason: "not an IPv4 address"}
		}
		return Range{prefix: netip.PrefixFrom(addr, 32)}, nil
	}

	prefix, err := netip.ParsePrefix(text)
	if err != nil {
		return Range{}, &InvalidRangeError{Text: text, Reason: "not a valid CIDR range"}
	}
	if !prefix.Addr().Is4() {
		return Range{}, &InvalidRangeError{Text: text, Reason: "not an IPv4 range"}
	}
	if prefix.Bits() < 0 || prefix.Bits() > 32 {
		return Range{}, &InvalidRangeError{Text: text, Reason: "prefix length outside 0..32"}
	}
	// Zero the host bits so 10.1.2.3/8 stores as 10.0.0.0/8.
	return Range{prefix: prefix.Masked()}, nil
}

// Contains reports whether addr lies within the range. Prefix length 0
// matches every IPv4 address, 32 only the exact host.
func (r Range) Contains(addr netip.Addr) bool {
	return r.prefix.Contains(addr.Unmap())
}

// Prefix returns the normalized prefix backing this range.
func (r Range) Prefix() netip.Prefix {
	return r.prefix
}

func (r Range) String() string {
	return r.prefix.String()
}

// Set is an ordered, immutable collection of allowed ranges.
type Set struct {
	ranges []Range
}

// NewSet builds a Set from pre-parsed ranges. The slice is copied; callers
// cannot mutate the set afterwards.
func NewSet(ranges []Range) *Set {
	s := &Set{ranges: make([]Range, len(ranges))}
	copy(s.ranges, ranges)
	return s
}

// ParseSet builds a Set from raw CIDR strings, failing on the first
// malformed entry.
func ParseSet(texts []string) (*Set, error) {
	ranges := make([]Range, 0, len(texts))
	for _, text := range texts {
		r, err := ParseRange(text)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return &Set{ranges: ranges}, nil
}

// Contains reports whether any range in the set contains addr.
func (s *Set) Contains(addr netip.Addr) bool {
	for _, r := range s.ranges {
		if r.Contains(addr) {
			return true
		}
	}
	return false
}

// Len returns the number of ranges in the set.
func (s *Set) Len() int {
	return len(s.ranges)
}

// Ranges returns a copy of the stored ranges, in declaration order.
func (s *Set) Ranges() []Range {
	out := make([]Range, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// ParseRanges reads an allow-list from r, one CIDR per line. Blank lines and
// lines starting with '#' are ignored. Any unparseable entry aborts the read
// with an *InvalidRangeError.
func ParseRanges(r io.Reader) (*Set, error) {
	var ranges []Range
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rng, err := ParseRange(line)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, rng)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read allow-list: %w", err)
	}
	return &Set{ranges: ranges}, nil
}

// LoadRanges reads an allow-list file from disk via ParseRanges.
func LoadRanges(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open allow-list %s: %w", path, err)
	}
	defer f.Close()
	return ParseRanges(f)
}
