package netset

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{
			name: "plain /8",
			text: "10.0.0.0/8",
			want: "10.0.0.0/8",
		},
		{
			name: "host bits are zeroed",
			text: "10.1.2.3/8",
			want: "10.0.0.0/8",
		},
		{
			name: "single host /32",
			text: "192.0.2.1/32",
			want: "192.0.2.1/32",
		},
		{
			name: "bare address becomes /32",
			text: "192.0.2.1",
			want: "192.0.2.1/32",
		},
		{
			name: "match-all /0",
			text: "0.0.0.0/0",
			want: "0.0.0.0/0",
		},
		{
			name: "surrounding whitespace",
			text: "  172.16.0.0/12  ",
			want: "172.16.0.0/12",
		},
		{
			name:    "octet out of range",
			text:    "999.0.0.0/40",
			wantErr: true,
		},
		{
			name:    "prefix too long",
			text:    "10.0.0.0/40",
			wantErr: true,
		},
		{
			name:    "negative prefix",
			text:    "10.0.0.0/-1",
			wantErr: true,
		},
		{
			name:    "ipv6 rejected",
			text:    "2001:db8::/32",
			wantErr: true,
		},
		{
			name:    "ipv6 bare address rejected",
			text:    "2001:db8::1",
			wantErr: true,
		},
		{
			name:    "garbage",
			text:    "not-a-network",
			wantErr: true,
		},
		{
			name:    "empty",
			text:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRange(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				var ire *InvalidRangeError
				assert.ErrorAs(t, err, &ire)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.String())
		})
	}
}

func TestSetContains(t *testing.T) {
	tests := []struct {
		name   string
		ranges []string
		addr   string
		want   bool
	}{
		{
			name:   "inside /8",
			ranges: []string{"10.0.0.0/8"},
			addr:   "10.1.2.3",
			want:   true,
		},
		{
			name:   "network address itself",
			ranges: []string{"10.0.0.0/8"},
			addr:   "10.0.0.0",
			want:   true,
		},
		{
			name:   "last address of range",
			ranges: []string{"10.0.0.0/8"},
			addr:   "10.255.255.255",
			want:   true,
		},
		{
			name:   "just outside",
			ranges: []string{"10.0.0.0/8"},
			addr:   "11.0.0.0",
			want:   false,
		},
		{
			name:   "slash 32 exact match",
			ranges: []string{"192.0.2.1/32"},
			addr:   "192.0.2.1",
			want:   true,
		},
		{
			name:   "slash 32 adjacent host",
			ranges: []string{"192.0.2.1/32"},
			addr:   "192.0.2.2",
			want:   false,
		},
		{
			name:   "slash 0 matches everything",
			ranges: []string{"0.0.0.0/0"},
			addr:   "203.0.113.5",
			want:   true,
		},
		{
			name:   "second of overlapping ranges",
			ranges: []string{"10.0.0.0/24", "10.0.0.0/8"},
			addr:   "10.9.9.9",
			want:   true,
		},
		{
			name:   "empty set matches nothing",
			ranges: nil,
			addr:   "10.0.0.1",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ParseSet(tt.ranges)
			require.NoError(t, err)
			addr := netip.MustParseAddr(tt.addr)
			assert.Equal(t, tt.want, set.Contains(addr), "Contains(%s)", tt.addr)
		})
	}
}

func TestParseSetFailsFast(t *testing.T) {
	_, err := ParseSet([]string{"10.0.0.0/8", "999.0.0.0/40", "172.16.0.0/12"})
	require.Error(t, err)
	var ire *InvalidRangeError
	require.ErrorAs(t, err, &ire)
	assert.Equal(t, "999.0.0.0/40", ire.Text)
}

func TestParseRanges(t *testing.T) {
	input := strings.Join([]string{
		"# corporate ranges",
		"",
		"10.0.0.0/8",
		"  # indented comment",
		"192.0.2.0/24",
		"",
	}, "\n")

	set, err := ParseRanges(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains(netip.MustParseAddr("192.0.2.77")))
	assert.False(t, set.Contains(netip.MustParseAddr("198.51.100.1")))
}

func TestParseRangesBadLine(t *testing.T) {
	input := "10.0.0.0/8\nbogus/xx\n"
	_, err := ParseRanges(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus/xx")
}

func TestSetImmutableAfterNewSet(t *testing.T) {
	r, err := ParseRange("10.0.0.0/8")
	require.NoError(t, err)
	src := []Range{r}
	set := NewSet(src)

	// Mutating the caller's slice must not affect the set.
	src[0], err = ParseRange("192.0.2.0/24")
	require.NoError(t, err)
	assert.True(t, set.Contains(netip.MustParseAddr("10.1.1.1")))
}
