package source

import (
	"context"
	"fmt"
	"net/netip"
	"os"

	"github.com/miekg/dns"

	"github.com/nwops/dnsaudit/internal/records"
)

// ZoneFile reads A and CNAME records from an RFC 1035 master file, letting
// an audit run against a zone transfer dump with no Infoblox access. All
// other record types in the file are skipped.
type ZoneFile struct {
	path   string
	origin string
}

// NewZoneFile creates a zone-file source. origin may be empty when the file
// uses fully qualified names or carries its own $ORIGIN directive.
func NewZoneFile(path, origin string) *ZoneFile {
	return &ZoneFile{path: path, origin: origin}
}

// Name implements Source.
func (z *ZoneFile) Name() string {
	return "zonefile"
}

// Fetch parses the master file in one pass. Parse errors are fatal: a record
// set read past a syntax error could silently miss records.
func (z *ZoneFile) Fetch(ctx context.Context) ([]records.Record, error) {
	f, err := os.Open(z.path)
	if err != nil {
		return nil, unavailable("open zone file", err)
	}
	defer f.Close()

	var recs []records.Record
	zp := dns.NewZoneParser(f, z.origin, z.path)

	for rr, ok := zp.Next(); ok; rr, ok = zp.Next() {
		if err := ctx.Err(); err != nil {
			return nil, unavailable("parse zone file", err)
		}
		switch t := rr.(type) {
		case *dns.A:
			addr, ok := netip.AddrFromSlice(t.A.To4())
			if !ok {
				return nil, unavailable("parse zone file",
					fmt.Errorf("record %s has malformed address %v", t.Hdr.Name, t.A))
			}
			recs = append(recs, records.NewA(t.Hdr.Name, addr))
		case *dns.CNAME:
			recs = append(recs, records.NewCNAME(t.Hdr.Name, t.Target))
		}
	}
	if err := zp.Err(); err != nil {
		return nil, unavailable("parse zone file", err)
	}

	return recs, nil
}
