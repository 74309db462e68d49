package ic

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeOptionsFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func TestLoadOptionsFileJSONC(t *testing.T) {
	path := writeOptionsFile(t, "critical.jsonc", `{
		// viewport
		"width": 1024,
		"target": {"css": "critical.css", "uncritical": "uncritical.css"},
		"penthouse": {"timeout": 30000,},
	}`)

	opts, err := LoadOptionsFile(path)
	if err != nil {
		t.Fatalf("LoadOptionsFile() error = %v", err)
	}
	if opts.Width != 1024 || opts.Height != DefaultHeight {
		t.Errorf("viewport = %dx%d", opts.Width, opts.Height)
	}
	if opts.Target != Split("critical.css", "", "uncritical.css") {
		t.Errorf("Target = %+v", opts.Target)
	}
	if opts.Penthouse["timeout"] == nil {
		t.Errorf("Penthouse lost its timeout: %v", opts.Penthouse)
	}
}

func TestLoadOptionsFileYAML(t *testing.T) {
	path := writeOptionsFile(t, "critical.yaml", `
inline: false
dimensions:
  - width: 375
    height: 667
ignore:
  atrule: ["@font-face"]
  rule: ["/some-unused-class/"]
`)

	opts, err := LoadOptionsFile(path)
	if err != nil {
		t.Fatalf("LoadOptionsFile() error = %v", err)
	}
	if opts.Inline {
		t.Errorf("Inline = true, want false")
	}
	if len(opts.Dimensions) != 1 || opts.Dimensions[0] != (Dimension{375, 667}) {
		t.Errorf("Dimensions = %v", opts.Dimensions)
	}
	if opts.Ignore == nil || len(opts.Ignore.Rule) != 1 {
		t.Errorf("Ignore = %+v", opts.Ignore)
	}
}

func TestLoadOptionsFileRejectsUnknownFields(t *testing.T) {
	path := writeOptionsFile(t, "critical.json", `{"widht": 10}`)

	_, err := LoadOptionsFile(path)
	var cfgErr *InvalidConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("LoadOptionsFile() error = %v, want *InvalidConfigurationError", err)
	}
}

func TestLoadOptionsFileMissing(t *testing.T) {
	if _, err := LoadOptionsFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
