package publishers

import (
	"time"

	"github.com/canonical-funnel/funnel-go/internal/domain"
	"github.com/google/uuid"
)

// EventTypeGroupDiscovered marks the first sighting of a group on a source.
const EventTypeGroupDiscovered = "group.discovered"

// Event represents the payload published downstream.
type Event struct {
	ID           string       `json:"id"`
	Type         string       `json:"type"`
	SourceID     string       `json:"source_id"`
	SourceName   string       `json:"source_name"`
	BaseURL      string       `json:"base_url"`
	Group        domain.Group `json:"group"`
	DiscoveredAt time.Time    `json:"discovered_at"`
}

// NewEvent constructs a group discovery Event for the given source + group.
func NewEvent(sourceID, sourceName, baseURL string, group domain.Group) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         EventTypeGroupDiscovered,
		SourceID:     sourceID,
		SourceName:   sourceName,
		BaseURL:      baseURL,
		Group:        group,
		DiscoveredAt: time.Now().UTC(),
	}
}

// attributes are copied onto broker messages so subscribers can filter without decoding.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_type": e.Type,
		"source_id":  e.SourceID,
		"group":      e.Group.Name,
	}
}
