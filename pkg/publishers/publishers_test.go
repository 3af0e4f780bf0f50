package publishers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
}

func TestValidatePublisherConfigRejectsMissingHTTP(t *testing.T) {
	err := PublisherConfig{
		ID:   "h1",
		Type: TypeHTTP,
	}.validate()
	if err == nil {
		t.Fatalf("expected validation error for missing http block")
	}
}

func TestLoadRegistryBrokerSinks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.json")
	raw := `{"publishers":[
  {"id":"queue","type":"SQS","sqs":{"uri":" https://sqs/q ","region":"us-east-1","access_key_id":"AK","secret_access_key":"SK","endpoint":"http://localhost:4566"}},
  {"id":"topic","type":"sns","sns":{"topic_arn":"arn:aws:sns:us-east-1:1:t","region":"us-east-1"}},
  {"id":"ps","type":"pubsub","pubsub":{"project_id":"p","topic":"groups"}}
]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	queue, ok := reg.ByID("queue")
	if !ok {
		t.Fatalf("expected queue publisher")
	}
	if queue.Type != TypeSQS {
		t.Fatalf("type not normalized: %q", queue.Type)
	}
	if queue.SQS.QueueURL != "https://sqs/q" || queue.SQS.AccessKeyID != "AK" || queue.SQS.Endpoint != "http://localhost:4566" {
		t.Fatalf("unexpected sqs config: %+v", queue.SQS)
	}
	if len(reg.Enabled()) != 3 {
		t.Fatalf("expected all publishers enabled by default")
	}
}

func TestValidatePublisherConfigBrokers(t *testing.T) {
	cases := []PublisherConfig{
		{ID: "s", Type: TypeSNS},
		{ID: "s", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "us-east-1"}},
		{ID: "p", Type: TypePubSub},
		{ID: "p", Type: TypePubSub, PubSub: &PubSubPublisherConfig{ProjectID: "p"}},
		{ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "u"}},
	}
	for _, cfg := range cases {
		if err := cfg.validate(); err == nil {
			t.Fatalf("expected validation error for %+v", cfg)
		}
	}
}

func TestValidateReportsAllMissingFields(t *testing.T) {
	err := PublisherConfig{ID: "topic", Type: TypeSNS, SNS: &SNSPublisherConfig{}}.validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"sns.topic_arn is required", "sns.region is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidateRejectsSectionForOtherType(t *testing.T) {
	cfg := PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{URL: "https://example.com"},
		SQS:  &SQSPublisherConfig{QueueURL: "u", Region: "r"},
	}
	err := cfg.validate()
	if err == nil || !strings.Contains(err.Error(), "sqs section does not apply to type http") {
		t.Fatalf("expected mismatched section error, got %v", err)
	}
}

func TestValidateAllowsCustomTypes(t *testing.T) {
	if err := (PublisherConfig{ID: "k", Type: "kafka"}).validate(); err != nil {
		t.Fatalf("custom type should be left to its builder: %v", err)
	}
}

func TestNormalizeFillsHTTPDefaults(t *testing.T) {
	cfg := PublisherConfig{
		ID:   " hook ",
		Type: " HTTP ",
		HTTP: &HTTPPublisherConfig{URL: " https://example.com ", Method: "put", Headers: map[string]string{" X-A ": " 1 ", "X-Empty": " "}},
	}
	cfg.normalize()

	if cfg.ID != "hook" || cfg.Type != TypeHTTP || !cfg.EnabledValue() {
		t.Fatalf("unexpected entry: %+v", cfg)
	}
	if cfg.HTTP.URL != "https://example.com" || cfg.HTTP.Method != "PUT" || cfg.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("unexpected http section: %+v", cfg.HTTP)
	}
	if len(cfg.HTTP.Headers) != 1 || cfg.HTTP.Headers["X-A"] != "1" {
		t.Fatalf("unexpected headers: %v", cfg.HTTP.Headers)
	}
}

func TestLoadRegistryRejectsBadFiles(t *testing.T) {
	cases := []struct {
		name, file, raw, want string
	}{
		{
			name: "unknown yaml key",
			file: "p.yaml",
			raw:  "publishers:\n  - id: h\n    type: http\n    http:\n      uri: https://example.com\n",
			want: "uri",
		},
		{
			name: "unknown json key",
			file: "p.json",
			raw:  `{"publishers":[{"id":"h","type":"http","http":{"url":"https://x"},"enabeld":false}]}`,
			want: "enabeld",
		},
		{
			name: "duplicate id",
			file: "p.yaml",
			raw:  "publishers:\n  - id: h\n    type: http\n    http: {url: https://a}\n  - id: h\n    type: http\n    http: {url: https://b}\n",
			want: "already used by publishers[0]",
		},
		{
			name: "empty list",
			file: "p.yaml",
			raw:  "publishers: []\n",
			want: "no publishers entries",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadRegistry(writeConfig(t, tc.file, tc.raw))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("LoadRegistry error = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLoadRegistryWithoutExtensionAcceptsYAML(t *testing.T) {
	reg, err := LoadRegistry(writeConfig(t, "publishers", "publishers:\n  - id: h\n    type: http\n    http:\n      url: https://example.com\n"))
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if cfg, ok := reg.ByID("h"); !ok || cfg.HTTP.Method != "POST" {
		t.Fatalf("unexpected registry entry: %+v ok=%v", cfg, ok)
	}
}
