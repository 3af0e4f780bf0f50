package sources

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write sources file: %v", err)
	}
	return file
}

func TestLoadRegistryYAML(t *testing.T) {
	file := writeFile(t, "sources.yaml", `
sources:
  - id: primary
    name: Primary API
    base_url: https://api.example.com/
    api_key: secret123
    timeout_seconds: 10
  - id: mirror
    base_url: " https://mirror.example.com "
    status_check: true
`)

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}

	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(all))
	}
	if all[0].ID != "primary" || all[1].ID != "mirror" {
		t.Fatalf("unexpected order: %+v", all)
	}

	p, ok := reg.ByID("primary")
	if !ok {
		t.Fatalf("expected source primary to be loaded")
	}
	if p.APIKey == nil || *p.APIKey != "secret123" {
		t.Fatalf("unexpected api key: %v", p.APIKey)
	}
	if p.Timeout() != 10*time.Second {
		t.Fatalf("unexpected timeout: %v", p.Timeout())
	}

	m, _ := reg.ByID("mirror")
	if m.BaseURL != "https://mirror.example.com" {
		t.Fatalf("base_url not trimmed: %q", m.BaseURL)
	}
	if m.Name != "mirror" {
		t.Fatalf("name should default to id, got %q", m.Name)
	}
	if m.APIKey != nil {
		t.Fatalf("expected no api key for mirror")
	}
	if !m.StatusCheck {
		t.Fatalf("expected status_check for mirror")
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	file := writeFile(t, "sources.json", `{"sources":[{"id":"a","base_url":"http://a"}]}`)

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if len(reg.All()) != 1 {
		t.Fatalf("expected 1 source")
	}
}

func TestLoadRegistryRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"duplicate": `
sources:
  - id: dup
    base_url: http://a
  - id: dup
    base_url: http://b
`,
		"missing base_url": `
sources:
  - id: a
`,
		"empty": `sources: []`,
		"negative timeout": `
sources:
  - id: a
    base_url: http://a
    timeout_seconds: -1
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			file := writeFile(t, "sources.yaml", content)
			if _, err := LoadRegistry(file); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestSourceNewClient(t *testing.T) {
	key := "k"
	src := Source{ID: "a", BaseURL: "https://api.example.com//", APIKey: &key}

	c, err := src.NewClient(nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.BaseURL() != "https://api.example.com" {
		t.Fatalf("BaseURL = %q", c.BaseURL())
	}
	if !c.HasAPIKey() {
		t.Fatalf("expected api key to be configured")
	}

	bad := Source{ID: "b", BaseURL: "http://b", CAFile: filepath.Join(t.TempDir(), "none.pem")}
	if _, err := bad.NewClient(nil); err == nil {
		t.Fatalf("expected transport init error for missing ca file")
	}
}
