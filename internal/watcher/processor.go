package watcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical-funnel/funnel-go/internal/domain"
	"github.com/canonical-funnel/funnel-go/pkg/logging"
	"github.com/canonical-funnel/funnel-go/pkg/publishers"
	"github.com/canonical-funnel/funnel-go/pkg/sources"
)

// Target pairs a configured source with the client that queries it.
type Target struct {
	Source  sources.Source
	BaseURL string
	Client  GroupLister
}

// SourceProcessor announces groups a source lists for the first time.
type SourceProcessor struct {
	publisher EventPublisher
	log       Logger
	deduper   Deduper
}

// NewSourceProcessor wires a processor. A nil deduper announces every group on every pass.
func NewSourceProcessor(pub EventPublisher, log Logger, deduper Deduper) *SourceProcessor {
	if log == nil {
		log = logging.Nop{}
	}
	return &SourceProcessor{publisher: pub, log: log, deduper: deduper}
}

// Process lists the target's groups and publishes an event for each unseen one.
// A group is marked seen once at least one sink accepted its event.
func (p *SourceProcessor) Process(ctx context.Context, target Target) (int, error) {
	if target.Client == nil {
		return 0, fmt.Errorf("source %s has no client", target.Source.ID)
	}

	groups, err := target.Client.ListGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("list groups for source %s: %w", target.Source.ID, err)
	}

	fresh := p.filterNewGroups(target.Source, groups)
	p.log.InfoObj("source groups listed", "source_groups", map[string]any{
		"source_id":    target.Source.ID,
		"groups_total": len(groups),
		"groups_new":   len(fresh),
	})

	var errs []error
	announced := 0
	for _, name := range fresh {
		if ctx.Err() != nil {
			break
		}

		group := p.describeGroup(ctx, target, name)
		if err := p.announce(ctx, target, group); err != nil {
			errs = append(errs, err)
			continue
		}
		announced++
	}
	return announced, errors.Join(errs...)
}

// filterNewGroups drops empty names, groups already announced and duplicates
// within one listing. Store lookup failures keep the group so it is not silently lost.
func (p *SourceProcessor) filterNewGroups(src sources.Source, groups []string) []string {
	out := make([]string, 0, len(groups))
	inList := make(map[string]struct{}, len(groups))
	for i, g := range groups {
		if g == "" {
			p.log.WarnObj("skipping unnamed group", "source_group", map[string]any{
				"source_id": src.ID,
				"index":     i,
			})
			continue
		}
		if _, dup := inList[g]; dup {
			continue
		}
		inList[g] = struct{}{}

		if p.deduper == nil {
			out = append(out, g)
			continue
		}
		seen, err := p.deduper.SeenGroup(src.ID, g)
		if err != nil {
			p.log.WarnObj("group lookup failed", "dedupe_error", map[string]any{
				"source_id": src.ID,
				"group":     g,
				"error":     err.Error(),
			})
			out = append(out, g)
			continue
		}
		if !seen {
			out = append(out, g)
		}
	}
	return out
}

// describeGroup counts the group's items. A failure is recorded on the group, not returned.
func (p *SourceProcessor) describeGroup(ctx context.Context, target Target, name string) domain.Group {
	group := domain.Group{Name: name}
	items, err := target.Client.ListGroupItems(ctx, name)
	if err != nil {
		group.ItemsError = err.Error()
		p.log.WarnObj("group items unavailable", "group_items_error", map[string]any{
			"source_id": target.Source.ID,
			"group":     name,
			"error":     err.Error(),
		})
		return group
	}
	group.ItemCount = len(items)
	return group
}

func (p *SourceProcessor) announce(ctx context.Context, target Target, group domain.Group) error {
	if p.publisher == nil {
		return fmt.Errorf("no publisher configured")
	}

	evt := publishers.NewEvent(target.Source.ID, target.Source.Name, target.BaseURL, group)
	delivered, err := p.publisher.Publish(ctx, evt)
	if err != nil {
		p.log.ErrorObj("group event publish failed", "publish_error", map[string]any{
			"source_id": target.Source.ID,
			"group":     group.Name,
			"delivered": delivered,
			"error":     err.Error(),
		})
	}
	if delivered == 0 {
		if err == nil {
			err = fmt.Errorf("no publisher accepted the event")
		}
		return fmt.Errorf("announce group %q on source %s: %w", group.Name, target.Source.ID, err)
	}

	if p.deduper != nil {
		if markErr := p.deduper.MarkGroup(target.Source.ID, group.Name); markErr != nil {
			return fmt.Errorf("mark group %q on source %s: %w", group.Name, target.Source.ID, markErr)
		}
	}
	if err != nil {
		// Partial delivery keeps the group marked.
		return fmt.Errorf("announce group %q on source %s: %w", group.Name, target.Source.ID, err)
	}
	return nil
}
