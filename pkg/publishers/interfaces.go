package publishers

import (
	"context"

	"github.com/canonical-funnel/funnel-go/pkg/logging"
)

// Logger is the logging surface publishers write to.
type Logger = logging.Logger

// Publisher sends events to a downstream sink (SQS, SNS, Pub/Sub, HTTP).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// closer is implemented by publishers holding connections that must be released.
type closer interface {
	Close() error
}
