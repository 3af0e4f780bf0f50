package funnel

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// GroupItem is one asset listed under a group.
type GroupItem struct {
	Index        *int   `json:"index,omitempty"`
	Name         string `json:"name,omitempty"`
	CID          string `json:"cid,omitempty"`
	URL          string `json:"url,omitempty"`
	TimestampUTC string `json:"timestamp_utc,omitempty"`
}

// TrustRecord summarises a canonical trust record file.
type TrustRecord struct {
	Relative  string         `json:"relative"`
	Owner     string         `json:"owner,omitempty"`
	MasterDID string         `json:"masterDid,omitempty"`
	MasterCID string         `json:"masterCid,omitempty"`
	Keys      []string       `json:"keys"`
	Record    map[string]any `json:"record,omitempty"`
}

// StructureEntry describes one node of a JSON document's shape.
type StructureEntry struct {
	Path       string   `json:"path"`
	Type       string   `json:"type"`
	Keys       []string `json:"keys,omitempty"`
	SampleSize *int     `json:"sampleSize,omitempty"`
	Value      any      `json:"value,omitempty"`
}

// ManifestSummary lists the top-level keys and structure of a manifest file.
type ManifestSummary struct {
	Relative  string           `json:"relative"`
	Keys      []string         `json:"keys"`
	Structure []StructureEntry `json:"structure"`
}

// KeywordStats aggregates keyword counts across the funnel keyword files.
type KeywordStats struct {
	FilesProcessed         int      `json:"filesProcessed"`
	Keywords               int      `json:"keywords"`
	Categories             int      `json:"categories"`
	DeclaredLots           []string `json:"declaredLots"`
	DeclaredCategoryTotals []int    `json:"declaredCategoryTotals"`
}

// Response envelope keys. Lookups are exact; encoding/json alone would also
// accept "GROUPS" or "Groups".
const (
	fieldGroups    = "groups"
	fieldItems     = "items"
	fieldRecords   = "records"
	fieldManifests = "manifests"
)

// decodeList extracts the list under key from a JSON object body. A missing or
// null key yields *MissingFieldError and a null entry *NullElementError.
func decodeList[T any](body []byte, key string) ([]T, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope == nil {
		return nil, &MissingFieldError{Field: key}
	}
	raw, ok := envelope[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, &MissingFieldError{Field: key}
	}

	var entries []*T
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	out := make([]T, len(entries))
	for i, e := range entries {
		if e == nil {
			return nil, &NullElementError{Field: key, Index: i}
		}
		out[i] = *e
	}
	return out, nil
}
