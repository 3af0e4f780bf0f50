package domain

// Domain contains core models shared by the watcher and publishers.

// Group is a funnel group as observed by the watcher.
type Group struct {
	Name      string `json:"name"`
	ItemCount int    `json:"item_count"`
	// ItemsError is set when the group's items could not be listed.
	ItemsError string `json:"items_error,omitempty"`
}
