// Package storage remembers which funnel groups have already been announced.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks which groups each source has already announced.
type Store interface {
	Close() error
	SeenGroup(sourceID, group string) (bool, error)
	MarkGroup(sourceID, group string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	GroupTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultGroupTTL        = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.GroupTTL <= 0 {
		opts.GroupTTL = defaultGroupTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                           { return nil }
func (noopStore) SeenGroup(string, string) (bool, error) { return false, nil }
func (noopStore) MarkGroup(string, string) error         { return nil }
