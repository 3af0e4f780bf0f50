package funnel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/canonical-funnel/funnel-go/pkg/httpclient"
	"github.com/canonical-funnel/funnel-go/pkg/logging"
)

const (
	headerAPIKey = "x-api-key"

	pathGroups       = "/api/v1/groups"
	pathTrustRecords = "/api/v1/trust-records"
	pathManifests    = "/api/v1/manifests"
	pathKeywordStats = "/api/v1/keywords/stats"
)

// ErrEmptyGroup is returned by ListGroupItems before any request is made.
var ErrEmptyGroup = errors.New("group name is required")

// Client talks to one Canonical Funnel API. It is immutable after New and
// safe for concurrent use; copies share the same transport.
type Client struct {
	baseURL     string
	apiKey      string
	hasAPIKey   bool
	transport   httpclient.Client
	checkStatus bool
	log         Logger
}

// New builds a client for baseURL. Trailing slashes are stripped; the URL is
// not otherwise validated.
func New(baseURL string, opts ...Option) (*Client, error) {
	var s settings
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	transport := s.transport
	if transport == nil {
		rc, err := httpclient.NewRestyClient(s.httpOpts)
		if err != nil {
			return nil, &TransportInitError{Err: err}
		}
		transport = rc
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		transport:   transport,
		checkStatus: s.checkStatus,
		log:         logging.OrNop(s.log),
	}
	if s.apiKey != nil {
		c.apiKey = *s.apiKey
		c.hasAPIKey = true
	}
	return c, nil
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// HasAPIKey reports whether requests carry the x-api-key header.
func (c *Client) HasAPIKey() bool { return c.hasAPIKey }

// Clone returns a copy sharing the same transport.
func (c *Client) Clone() *Client {
	cp := *c
	return &cp
}

// ListGroups returns the group names in the order the server lists them.
func (c *Client) ListGroups(ctx context.Context) ([]string, error) {
	var groups []string
	err := c.get(ctx, pathGroups, func(body []byte) (err error) {
		groups, err = decodeList[string](body, fieldGroups)
		return err
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// ListGroupItems returns the items of one group.
func (c *Client) ListGroupItems(ctx context.Context, group string) ([]GroupItem, error) {
	if group == "" {
		return nil, ErrEmptyGroup
	}
	var items []GroupItem
	err := c.get(ctx, pathGroups+"/"+url.PathEscape(group)+"/items", func(body []byte) (err error) {
		items, err = decodeList[GroupItem](body, fieldItems)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// TrustRecords returns the canonical trust record summaries.
func (c *Client) TrustRecords(ctx context.Context) ([]TrustRecord, error) {
	var records []TrustRecord
	err := c.get(ctx, pathTrustRecords, func(body []byte) (err error) {
		records, err = decodeList[TrustRecord](body, fieldRecords)
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ManifestSummaries returns the structure summaries of manifest files.
func (c *Client) ManifestSummaries(ctx context.Context) ([]ManifestSummary, error) {
	var manifests []ManifestSummary
	err := c.get(ctx, pathManifests, func(body []byte) (err error) {
		manifests, err = decodeList[ManifestSummary](body, fieldManifests)
		return err
	})
	if err != nil {
		return nil, err
	}
	return manifests, nil
}

// KeywordStats returns the aggregated keyword statistics.
func (c *Client) KeywordStats(ctx context.Context) (KeywordStats, error) {
	var stats KeywordStats
	err := c.get(ctx, pathKeywordStats, func(body []byte) error {
		return json.Unmarshal(body, &stats)
	})
	if err != nil {
		return KeywordStats{}, err
	}
	return stats, nil
}

// get issues one GET against baseURL+path and hands the body to decode.
// Decode failures are wrapped in *DecodeError.
func (c *Client) get(ctx context.Context, path string, decode func(body []byte) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fullURL := c.baseURL + path
	var headers map[string]string
	if c.hasAPIKey {
		headers = map[string]string{headerAPIKey: c.apiKey}
	}

	start := time.Now()
	resp, err := c.transport.Get(ctx, fullURL, headers)
	if err != nil {
		return &TransportError{Method: http.MethodGet, URL: fullURL, Err: err}
	}

	status := resp.StatusCode()
	body := resp.Body()
	c.log.DebugObj("funnel request completed", "funnel_request", map[string]any{
		"url":        fullURL,
		"status":     status,
		"bytes":      len(body),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	if c.checkStatus && (status < 200 || status > 299) {
		return &StatusError{URL: fullURL, StatusCode: status, Snippet: responseSnippet(resp.Header(), body)}
	}

	if err := decode(body); err != nil {
		return &DecodeError{URL: fullURL, StatusCode: status, Snippet: responseSnippet(resp.Header(), body), Err: err}
	}
	return nil
}
