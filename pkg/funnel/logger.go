package funnel

import "github.com/canonical-funnel/funnel-go/pkg/logging"

// Logger receives per-request debug traces. See WithLogger.
type Logger = logging.Logger
