// Package sources loads the set of Canonical Funnel endpoints to watch.
package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/canonical-funnel/funnel-go/pkg/funnel"
	"gopkg.in/yaml.v3"
)

// DefaultID names the source derived from cfe_base_url when no file is configured.
const DefaultID = "default"

// Source is one Canonical Funnel API endpoint.
type Source struct {
	ID             string  `json:"id" yaml:"id"`
	Name           string  `json:"name" yaml:"name"`
	BaseURL        string  `json:"base_url" yaml:"base_url"`
	APIKey         *string `json:"api_key" yaml:"api_key"`
	TimeoutSeconds int     `json:"timeout_seconds" yaml:"timeout_seconds"`
	StatusCheck    bool    `json:"status_check" yaml:"status_check"`
	CAFile         string  `json:"ca_file" yaml:"ca_file"`
}

type registryFile struct {
	Sources []Source `json:"sources" yaml:"sources"`
}

// Registry holds validated sources in file order.
type Registry struct {
	mu      sync.RWMutex
	sources []Source
	idx     map[string]Source
}

// NewRegistry validates srcs and indexes them by id.
func NewRegistry(srcs ...Source) (*Registry, error) {
	if len(srcs) == 0 {
		return nil, errors.New("no sources configured")
	}

	reg := &Registry{
		sources: make([]Source, len(srcs)),
		idx:     make(map[string]Source, len(srcs)),
	}
	for i := range srcs {
		s := sanitizeSource(srcs[i])
		if err := validateSource(s); err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		if _, exists := reg.idx[s.ID]; exists {
			return nil, fmt.Errorf("duplicate source id %q", s.ID)
		}
		reg.sources[i] = s
		reg.idx[s.ID] = s
	}
	return reg, nil
}

// LoadRegistry loads sources from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sources file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Sources) == 0 {
		return nil, errors.New("sources file contains no sources entries")
	}
	return NewRegistry(parsed.Sources...)
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registryFile, error) {
	var reg registryFile
	if err := fn(data, &reg); err != nil {
		return registryFile{}, fmt.Errorf("decode %s sources: %w", name, err)
	}
	return reg, nil
}

// sanitizeSource trims identifiers. The API key is left untouched.
func sanitizeSource(s Source) Source {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.BaseURL = strings.TrimSpace(s.BaseURL)
	s.CAFile = strings.TrimSpace(s.CAFile)
	if s.Name == "" {
		s.Name = s.ID
	}
	return s
}

func validateSource(s Source) error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.BaseURL == "" {
		return fmt.Errorf("base_url is required for source %q", s.ID)
	}
	if s.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative for source %q", s.ID)
	}
	return nil
}

// All returns a copy of the sources in declaration order.
func (r *Registry) All() []Source {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// ByID returns the source with the given id.
func (r *Registry) ByID(id string) (Source, bool) {
	if r == nil {
		return Source{}, false
	}
	id = strings.TrimSpace(id)

	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.idx[id]
	return s, ok
}

// Timeout returns the per-request timeout, zero meaning none.
func (s Source) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// NewClient builds a funnel client for the source. Extra options are applied last.
func (s Source) NewClient(log funnel.Logger, extra ...funnel.Option) (*funnel.Client, error) {
	opts := []funnel.Option{
		funnel.WithOptionalAPIKey(s.APIKey),
		funnel.WithTimeout(s.Timeout()),
		funnel.WithLogger(log),
	}
	if s.CAFile != "" {
		opts = append(opts, funnel.WithRootCAFile(s.CAFile))
	}
	if s.StatusCheck {
		opts = append(opts, funnel.WithStatusCheck())
	}
	opts = append(opts, extra...)

	c, err := funnel.New(s.BaseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.ID, err)
	}
	return c, nil
}
