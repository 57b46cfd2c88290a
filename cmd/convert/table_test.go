package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderTablePlainWhenPiped(t *testing.T) {
	var buf bytes.Buffer
	out := renderTable(&buf, resultColumns, [][]string{
		{"a.png", "image", "jpg", "done"},
		{"b.wav", "audio", "mp3", "error", "ffmpeg failed"},
	})

	if strings.Contains(out, "╭") {
		t.Fatalf("rounded borders written to a non-terminal:\n%s", out)
	}
	for _, want := range []string{"a.png", "ffmpeg failed", "|"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if got := len(strings.Split(strings.TrimSpace(out), "\n")); got != 6 {
		t.Fatalf("table has %d lines, want 6:\n%s", got, out)
	}
}

func TestRenderTableNoColumns(t *testing.T) {
	if out := renderTable(&bytes.Buffer{}, nil, [][]string{{"x"}}); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}
