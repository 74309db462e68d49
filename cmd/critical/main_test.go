package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/sjc5/critical"
)

func TestRunRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	badOptions := filepath.Join(dir, "critical.json")
	if err := os.WriteFile(badOptions, []byte(`{"inline": "yes"}`), 0644); err != nil {
		t.Fatal(err)
	}
	notDir := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(notDir, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"extra argument", []string{"--dir", dir, "extra"}, "unexpected argument"},
		{"missing dir", []string{"--dir", filepath.Join(dir, "nope")}, "error reading output directory"},
		{"dir is a file", []string{"--dir", notDir}, "is not a directory"},
		{"missing config", []string{"--dir", dir, "--config", filepath.Join(dir, "missing.json")}, "error reading options file"},
		{"invalid options", []string{"--dir", dir, "--config", badOptions}, "options.inline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("run(%v) error = %v, want it to contain %q", tt.args, err, tt.wantMsg)
			}
		})
	}
}

func TestRunInvalidOptionsIsTyped(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "critical.yaml")
	if err := os.WriteFile(cfg, []byte("widht: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	err := run([]string{"--dir", dir, "--config", cfg})
	var ice *critical.InvalidConfigurationError
	if !errors.As(err, &ice) {
		t.Errorf("run() error = %v, want InvalidConfigurationError", err)
	}
}

func TestRunHelp(t *testing.T) {
	if err := run([]string{"--help"}); !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("run(--help) error = %v, want pflag.ErrHelp", err)
	}
}

func TestRunWithoutHTMLIsNoop(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.css"), []byte("body{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := run([]string{"--dir", dir}); err != nil {
		t.Errorf("run() error = %v, want nil", err)
	}
}
