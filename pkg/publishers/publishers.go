package publishers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
	TypeHTTP   = "http"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// configFile represents the structure of the publishers configuration file.
type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig represents a single publisher entry declared in config files.
type PublisherConfig struct {
	ID      string                 `json:"id" yaml:"id"`
	Type    string                 `json:"type" yaml:"type"`
	Enabled *bool                  `json:"enabled" yaml:"enabled"`
	SQS     *SQSPublisherConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubPublisherConfig `json:"pubsub" yaml:"pubsub"`
	HTTP    *HTTPPublisherConfig   `json:"http" yaml:"http"`
}

// AWSCredentials optionally pins static credentials and a custom endpoint
// (e.g. LocalStack). Empty fields fall back to the default AWS chain.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// SQSPublisherConfig holds AWS SQS specific settings.
type SQSPublisherConfig struct {
	QueueURL       string `json:"uri" yaml:"uri"`
	Region         string `json:"region" yaml:"region"`
	AWSCredentials `json:",inline" yaml:",inline"`
}

// SNSPublisherConfig holds AWS SNS specific settings.
type SNSPublisherConfig struct {
	TopicARN       string `json:"topic_arn" yaml:"topic_arn"`
	Region         string `json:"region" yaml:"region"`
	AWSCredentials `json:",inline" yaml:",inline"`
}

// PubSubPublisherConfig holds Google Cloud Pub/Sub settings.
type PubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig holds generic HTTP sink settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// sinkConfig is the type-specific section of a publisher entry.
type sinkConfig interface {
	normalize()
	missing() []string
}

func (c *SQSPublisherConfig) normalize() {
	trimAll(&c.QueueURL, &c.Region, &c.Endpoint)
}

func (c *SQSPublisherConfig) missing() []string {
	return emptyFields("uri", c.QueueURL, "region", c.Region)
}

func (c *SNSPublisherConfig) normalize() {
	trimAll(&c.TopicARN, &c.Region, &c.Endpoint)
}

func (c *SNSPublisherConfig) missing() []string {
	return emptyFields("topic_arn", c.TopicARN, "region", c.Region)
}

func (c *PubSubPublisherConfig) normalize() {
	trimAll(&c.ProjectID, &c.Topic, &c.CredentialsFile)
}

func (c *PubSubPublisherConfig) missing() []string {
	return emptyFields("project_id", c.ProjectID, "topic", c.Topic)
}

func (c *HTTPPublisherConfig) normalize() {
	trimAll(&c.URL)
	if c.Method = strings.ToUpper(strings.TrimSpace(c.Method)); c.Method == "" {
		c.Method = httpDefaultMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeoutSeconds
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = nil
	if len(headers) > 0 {
		c.Headers = headers
	}
}

func (c *HTTPPublisherConfig) missing() []string {
	return emptyFields("url", c.URL)
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

// emptyFields takes name/value pairs and returns the names whose value is empty.
func emptyFields(pairs ...string) []string {
	var out []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			out = append(out, pairs[i])
		}
	}
	return out
}

// sections returns every sink section present on the entry, keyed by type.
func (cfg *PublisherConfig) sections() map[string]sinkConfig {
	out := make(map[string]sinkConfig, 1)
	if cfg.SQS != nil {
		out[TypeSQS] = cfg.SQS
	}
	if cfg.SNS != nil {
		out[TypeSNS] = cfg.SNS
	}
	if cfg.PubSub != nil {
		out[TypePubSub] = cfg.PubSub
	}
	if cfg.HTTP != nil {
		out[TypeHTTP] = cfg.HTTP
	}
	return out
}

// normalize trims every field and fills defaults. Sections are copied so the
// decoded file is never aliased.
func (cfg *PublisherConfig) normalize() {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		enabled := true
		cfg.Enabled = &enabled
	}
	if cfg.SQS != nil {
		c := *cfg.SQS
		cfg.SQS = &c
	}
	if cfg.SNS != nil {
		c := *cfg.SNS
		cfg.SNS = &c
	}
	if cfg.PubSub != nil {
		c := *cfg.PubSub
		cfg.PubSub = &c
	}
	if cfg.HTTP != nil {
		c := *cfg.HTTP
		cfg.HTTP = &c
	}
	for _, sec := range cfg.sections() {
		sec.normalize()
	}
}

// validate reports every problem with a normalized entry at once. Types
// without a built-in section are left to their registered Builder.
func (cfg PublisherConfig) validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("publisher %q: type is required", cfg.ID)
	}

	var errs []error
	sections := cfg.sections()
	sec, ok := sections[cfg.Type]
	switch {
	case !ok && isBuiltinType(cfg.Type):
		errs = append(errs, fmt.Errorf("%s section is required", cfg.Type))
	case ok:
		for _, field := range sec.missing() {
			errs = append(errs, fmt.Errorf("%s.%s is required", cfg.Type, field))
		}
	}
	for typ := range sections {
		if typ != cfg.Type {
			errs = append(errs, fmt.Errorf("%s section does not apply to type %s", typ, cfg.Type))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return nil
}

func isBuiltinType(typ string) bool {
	switch typ {
	case TypeSQS, TypeSNS, TypePubSub, TypeHTTP:
		return true
	}
	return false
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// ConfigRegistry holds the validated publisher entries of one file, in file order.
type ConfigRegistry struct {
	publishers []PublisherConfig
	idx        map[string]int
}

// LoadRegistry loads the publisher registry from a YAML or JSON file. Unknown
// keys are rejected so that misspelled settings do not silently fall back to defaults.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var file configFile
	if err := decodeConfigFile(raw, filepath.Ext(path), &file); err != nil {
		return nil, fmt.Errorf("decode publishers file %s: %w", path, err)
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, 0, len(file.Publishers)),
		idx:        make(map[string]int, len(file.Publishers)),
	}
	for i, cfg := range file.Publishers {
		cfg.normalize()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if prev, dup := reg.idx[cfg.ID]; dup {
			return nil, fmt.Errorf("publishers[%d]: id %q already used by publishers[%d]", i, cfg.ID, prev)
		}
		reg.idx[cfg.ID] = len(reg.publishers)
		reg.publishers = append(reg.publishers, cfg)
	}
	return reg, nil
}

// decodeConfigFile picks the decoder from the extension. Without one, JSON is
// tried first and YAML second.
func decodeConfigFile(raw []byte, ext string, out *configFile) error {
	decodeJSON := func() error {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		return dec.Decode(out)
	}
	decodeYAML := func() error {
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		return dec.Decode(out)
	}

	switch strings.ToLower(ext) {
	case ".json":
		return decodeJSON()
	case ".yaml", ".yml":
		return decodeYAML()
	default:
		if err := decodeJSON(); err == nil {
			return nil
		}
		*out = configFile{}
		return decodeYAML()
	}
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.idx[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.publishers[i], true
}

// All returns all configured publishers.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return append([]PublisherConfig(nil), r.publishers...)
}

// Enabled returns publishers that are enabled.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	var out []PublisherConfig
	for _, cfg := range r.publishers {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}
