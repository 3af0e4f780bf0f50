package watcher

import (
	"context"

	"github.com/canonical-funnel/funnel-go/pkg/funnel"
	"github.com/canonical-funnel/funnel-go/pkg/logging"
	"github.com/canonical-funnel/funnel-go/pkg/publishers"
)

// GroupLister is the subset of *funnel.Client the watcher needs.
type GroupLister interface {
	ListGroups(ctx context.Context) ([]string, error)
	ListGroupItems(ctx context.Context, group string) ([]funnel.GroupItem, error)
}

// EventPublisher publishes discovery events downstream and reports how many sinks accepted them.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers which groups were already announced.
type Deduper interface {
	SeenGroup(sourceID, group string) (bool, error)
	MarkGroup(sourceID, group string) error
}

// Logger is the logging surface the watcher writes to.
type Logger = logging.Logger
