package source

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nwops/dnsaudit/internal/config"
	"github.com/nwops/dnsaudit/internal/records"
)

// wapiBootstrapVersion is the version every NIOS release answers schema
// queries on; the real working version is discovered from its response.
const wapiBootstrapVersion = "1.0"

// defaultPageSize is the WAPI _max_results value per page.
const defaultPageSize = 1000

// Infoblox fetches A and CNAME records for one DNS view from a NIOS grid
// master over the WAPI.
//
// The first request authenticates with HTTP basic auth against the schema
// endpoint; NIOS answers with an ibapauth session cookie that the underlying
// cookie jar replays on every later request, so credentials go over the wire
// once. The same schema response advertises the supported WAPI versions and
// the newest one is used for record queries unless the config pins one.
type Infoblox struct {
	baseURL  string
	view     string
	username string
	password string
	version  string // pinned or discovered
	pageSize int
	client   *http.Client
	logger   *slog.Logger
}

// NewInfoblox builds an Infoblox source from config. The host may carry an
// explicit scheme; plain hostnames get https.
func NewInfoblox(cfg config.InfobloxConfig, view string, logger *slog.Logger) (*Infoblox, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("infoblox host is required")
	}

	baseURL := cfg.Host
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.SkipVerify {
		// Grid masters commonly run self-signed certificates.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Infoblox{
		baseURL:  baseURL,
		view:     view,
		username: cfg.Username,
		password: cfg.Password,
		version:  cfg.WAPIVersion,
		pageSize: defaultPageSize,
		client: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: transport,
		},
		logger: logger,
	}, nil
}

// Name implements Source.
func (ib *Infoblox) Name() string {
	return "infoblox"
}

// Fetch authenticates, discovers the WAPI version, and pages through the
// view's A and CNAME records.
func (ib *Infoblox) Fetch(ctx context.Context) ([]records.Record, error) {
	if err := ib.authenticate(ctx); err != nil {
		return nil, err
	}

	var recs []records.Record

	aRecs, err := ib.fetchA(ctx)
	if err != nil {
		return nil, err
	}
	recs = append(recs, aRecs...)

	cnameRecs, err := ib.fetchCNAME(ctx)
	if err != nil {
		return nil, err
	}
	recs = append(recs, cnameRecs...)

	ib.logger.Info("fetched record set",
		"view", ib.view,
		"a_records", len(aRecs),
		"cname_records", len(cnameRecs),
	)
	return recs, nil
}

// schemaResponse is the ?_schema answer on any WAPI version.
type schemaResponse struct {
	SupportedVersions []string `json:"supported_versions"`
}

// authenticate performs the basic-auth schema request, capturing the session
// cookie and, when no version is pinned, the newest supported WAPI version.
func (ib *Infoblox) authenticate(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/wapi/v%s/?_schema", ib.baseURL, wapiBootstrapVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return unavailable("authenticate", err)
	}
	req.SetBasicAuth(ib.username, ib.password)

	resp, err := ib.client.Do(req)
	if err != nil {
		return unavailable("authenticate", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unavailable("authenticate",
			fmt.Errorf("grid master returned status %d", resp.StatusCode))
	}

	var schema schemaResponse
	if err := json.NewDecoder(resp.Body).Decode(&schema); err != nil {
		return unavailable("authenticate", fmt.Errorf("unparseable schema response: %w", err))
	}

	if ib.version == "" {
		ib.version = latestVersion(schema.SupportedVersions)
		if ib.version == "" {
			return unavailable("authenticate", fmt.Errorf("schema response lists no supported versions"))
		}
	}

	ib.logger.Debug("authenticated to grid master", "wapi_version", ib.version)
	return nil
}

// aRecord and cnameRecord mirror the WAPI _return_fields selections.
type aRecord struct {
	Name     string `json:"name"`
	IPv4Addr string `json:"ipv4addr"`
}

type cnameRecord struct {
	Name      string `json:"name"`
	Canonical string `json:"canonical"`
}

// pagedResponse is the _return_as_object=1 envelope.
type pagedResponse struct {
	NextPageID string          `json:"next_page_id"`
	Result     json.RawMessage `json:"result"`
}

func (ib *Infoblox) fetchA(ctx context.Context) ([]records.Record, error) {
	var recs []records.Record
	err := ib.pageThrough(ctx, "record:a", "name,ipv4addr", func(raw json.RawMessage) error {
		var page []aRecord
		if err := json.Unmarshal(raw, &page); err != nil {
			return err
		}
		for _, r := range page {
			addr, err := netip.ParseAddr(r.IPv4Addr)
			if err != nil || !addr.Is4() {
				return fmt.Errorf("record %s has malformed address %q", r.Name, r.IPv4Addr)
			}
			recs = append(recs, records.NewA(r.Name, addr))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (ib *Infoblox) fetchCNAME(ctx context.Context) ([]records.Record, error) {
	var recs []records.Record
	err := ib.pageThrough(ctx, "record:cname", "name,canonical", func(raw json.RawMessage) error {
		var page []cnameRecord
		if err := json.Unmarshal(raw, &page); err != nil {
			return err
		}
		for _, r := range page {
			recs = append(recs, records.NewCNAME(r.Name, r.Canonical))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// pageThrough walks the WAPI paging protocol for one object type, handing
// each page's result array to consume.
func (ib *Infoblox) pageThrough(ctx context.Context, object, returnFields string, consume func(json.RawMessage) error) error {
	pageID := ""
	for {
		params := url.Values{}
		params.Set("view", ib.view)
		params.Set("_return_fields", returnFields)
		params.Set("_paging", "1")
		params.Set("_return_as_object", "1")
		params.Set("_max_results", strconv.Itoa(ib.pageSize))
		if pageID != "" {
			params.Set("_page_id", pageID)
		}

		endpoint := fmt.Sprintf("%s/wapi/v%s/%s?%s", ib.baseURL, ib.version, object, params.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return unavailable("fetch "+object, err)
		}

		resp, err := ib.client.Do(req)
		if err != nil {
			return unavailable("fetch "+object, err)
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return unavailable("fetch "+object,
				fmt.Errorf("grid master returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}

		var page pagedResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return unavailable("fetch "+object, fmt.Errorf("unparseable response: %w", err))
		}

		if err := consume(page.Result); err != nil {
			return unavailable("fetch "+object, err)
		}

		if page.NextPageID == "" {
			return nil
		}
		pageID = page.NextPageID
	}
}

// latestVersion picks the numerically newest version from the schema list.
// NIOS reports versions like "2.9.1"; a plain string max would put "2.10"
// before "2.9", so segments are compared as integers.
func latestVersion(versions []string) string {
	best := ""
	for _, v := range versions {
		if best == "" || versionLess(best, v) {
			best = v
		}
	}
	return best
}

func versionLess(a, b string) bool {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var ai, bi int
		if i < len(as) {
			ai, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bi, _ = strconv.Atoi(bs[i])
		}
		if ai != bi {
			return ai < bi
		}
	}
	return false
}
