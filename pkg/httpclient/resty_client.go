package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options tunes the underlying resty client. The zero value keeps resty defaults:
// no timeout, system roots, no proxy.
type Options struct {
	Timeout    time.Duration
	RootCAFile string
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient. It fails only when an option
// cannot be applied, e.g. an unreadable CA bundle. Requests carry only the
// headers passed to Get: neither resty nor net/http adds a User-Agent.
func NewRestyClient(opts Options) (*RestyClient, error) {
	c, err := NewRestyHTTPClient(opts)
	if err != nil {
		return nil, err
	}
	c.SetPreRequestHook(omitUserAgent)
	return &RestyClient{client: c}, nil
}

// omitUserAgent blanks the User-Agent resty fills in. net/http skips the
// header entirely when it is present but empty.
func omitUserAgent(_ *resty.Client, req *http.Request) error {
	req.Header.Set("User-Agent", "")
	return nil
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(opts Options) (*resty.Client, error) {
	c := resty.New()
	c.SetDisableWarn(true)
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	if path := strings.TrimSpace(opts.RootCAFile); path != "" {
		pool, err := loadRootCAs(path)
		if err != nil {
			return nil, err
		}
		c.SetTLSClientConfig(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12})
	}
	return c, nil
}

func loadRootCAs(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ca file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("ca file %s contains no PEM certificates", path)
	}
	return pool, nil
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
