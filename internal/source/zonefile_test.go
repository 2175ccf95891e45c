package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwops/dnsaudit/internal/records"
)

func writeZone(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zone.db")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestZoneFileFetch(t *testing.T) {
	path := writeZone(t, `
www.example.com.   3600 IN A     10.1.2.3
www.example.com.   3600 IN A     10.1.2.4
alias.example.com. 3600 IN CNAME www.example.com.
mail.example.com.  3600 IN MX    10 mx.example.com.
txt.example.com.   3600 IN TXT   "ignored"
`)

	recs, err := NewZoneFile(path, "").Fetch(context.Background())
	require.NoError(t, err)

	// MX and TXT are skipped; only A and CNAME survive.
	require.Len(t, recs, 3)
	assert.Equal(t, records.TypeA, recs[0].Type)
	assert.Equal(t, "www.example.com", recs[0].Owner)
	assert.Equal(t, "10.1.2.3", recs[0].Addr.String())
	assert.Equal(t, "10.1.2.4", recs[1].Addr.String())
	assert.Equal(t, records.TypeCNAME, recs[2].Type)
	assert.Equal(t, "alias.example.com", recs[2].Owner)
	assert.Equal(t, "www.example.com", recs[2].Target)
}

func TestZoneFileWithOrigin(t *testing.T) {
	path := writeZone(t, `
www   3600 IN A     10.0.0.1
alias 3600 IN CNAME www
`)

	recs, err := NewZoneFile(path, "example.com.").Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, recs, 2)
	assert.Equal(t, "www.example.com", recs[0].Owner)
	assert.Equal(t, "alias.example.com", recs[1].Owner)
	assert.Equal(t, "www.example.com", recs[1].Target)
}

func TestZoneFileMissing(t *testing.T) {
	_, err := NewZoneFile("/nonexistent/zone.db", "").Fetch(context.Background())
	require.Error(t, err)

	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "open zone file", ue.Op)
}

func TestZoneFileSyntaxError(t *testing.T) {
	path := writeZone(t, "www.example.com. 3600 IN A not-an-address\n")

	_, err := NewZoneFile(path, "").Fetch(context.Background())
	require.Error(t, err)

	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "parse zone file", ue.Op)
}

func TestZoneFileName(t *testing.T) {
	assert.Equal(t, "zonefile", NewZoneFile("x", "").Name())
}
