package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/jcllobet/mother-in-law-decoder/internal/audio"
)

func renderToString(devices []audio.Device) string {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	renderDevices(cmd, devices)
	return buf.String()
}

func TestRenderDevicesEmptyListIsNotAnError(t *testing.T) {
	out := renderToString(nil)
	if !strings.Contains(out, "No capture devices found.") {
		t.Errorf("output = %q, want a no-devices notice", out)
	}
}

func TestRenderDevicesMarksDefault(t *testing.T) {
	out := renderToString([]audio.Device{
		{Index: 0, Name: "Built-in Microphone", Default: true},
		{Index: 1, Name: "USB Microphone"},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "*") || !strings.Contains(lines[0], "Built-in Microphone") {
		t.Errorf("default device line = %q", lines[0])
	}
	if strings.HasPrefix(lines[1], "*") {
		t.Errorf("non-default device marked default: %q", lines[1])
	}
}
