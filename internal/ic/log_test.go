package ic

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pterm/pterm"
)

func TestLoggerWritesScopedLines(t *testing.T) {
	pterm.DisableColor()
	defer pterm.EnableColor()

	var buf bytes.Buffer
	l := NewLoggerTo(LogLabel, &buf)

	l.Infof("Updated %s with inlined critical CSS", "index.html")
	l.Warningf("%v", ErrNoHTMLFiles)
	l.Errorf("Failed to process %s", "about.html")

	out := buf.String()
	for _, want := range []string{
		"Updated index.html with inlined critical CSS",
		ErrNoHTMLFiles.Error(),
		"Failed to process about.html",
		LogLabel,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLoggerDebugIsOptIn(t *testing.T) {
	pterm.DisableColor()
	defer pterm.EnableColor()
	pterm.DisableDebugMessages()

	var buf bytes.Buffer
	NewLoggerTo(LogLabel, &buf).Debugf("state %s -> %s", StateIdle, StateDiscovering)

	if strings.Contains(buf.String(), "state idle") {
		t.Errorf("debug line printed without debug messages enabled")
	}
}
