package funnel

import (
	"time"

	"github.com/canonical-funnel/funnel-go/pkg/httpclient"
)

// Option customises a Client at construction time.
type Option func(*settings)

type settings struct {
	apiKey      *string
	transport   httpclient.Client
	httpOpts    httpclient.Options
	checkStatus bool
	log         Logger
}

// WithAPIKey sets the key sent in the x-api-key header. The value is used as
// given; an empty string still counts as a configured key.
func WithAPIKey(key string) Option {
	return func(s *settings) {
		k := key
		s.apiKey = &k
	}
}

// WithOptionalAPIKey is WithAPIKey for callers holding a possibly nil key.
func WithOptionalAPIKey(key *string) Option {
	return func(s *settings) {
		if key == nil {
			s.apiKey = nil
			return
		}
		k := *key
		s.apiKey = &k
	}
}

// WithTimeout bounds each request. Zero or negative keeps the transport default (none).
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.httpOpts.Timeout = d }
}

// WithRootCAFile trusts the PEM bundle at path instead of the system roots.
func WithRootCAFile(path string) Option {
	return func(s *settings) { s.httpOpts.RootCAFile = path }
}

// WithStatusCheck rejects non-2xx responses with a *StatusError.
func WithStatusCheck() Option {
	return func(s *settings) { s.checkStatus = true }
}

// WithLogger attaches a logger for per-request debug traces.
func WithLogger(log Logger) Option {
	return func(s *settings) { s.log = log }
}

// WithTransport replaces the resty transport. Timeout and CA options are
// ignored when a transport is supplied.
func WithTransport(t httpclient.Client) Option {
	return func(s *settings) { s.transport = t }
}
