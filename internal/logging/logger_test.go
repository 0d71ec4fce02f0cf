package logging

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var lineFormat = regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] (INFO|WARN|ERROR|DEBUG) `)

func TestNew_LineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	logger, ring, err := New(Options{Path: path, MaxLines: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info().Str("id", "abc").Msg("saved new media")
	logger.Warn().Msg("download stopped")
	logger.Debug().Msg("hidden at info level")

	lines, err := ring.Lines()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), lines)
	}
	for _, line := range lines {
		if !lineFormat.MatchString(line) {
			t.Errorf("unexpected line format %q", line)
		}
	}
	if !strings.Contains(lines[0], "INFO saved new media") || !strings.Contains(lines[0], "id=abc") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "WARN download stopped") {
		t.Errorf("unexpected second line %q", lines[1])
	}
}

func TestNew_ConsoleMirror(t *testing.T) {
	var console bytes.Buffer
	logger, ring, err := New(Options{Level: "debug", Console: &console})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ring != nil {
		t.Error("expected no ring without a path")
	}

	logger.Debug().Msg("console only")
	if !strings.Contains(console.String(), "console only") {
		t.Errorf("expected console output, got %q", console.String())
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNew_NoSinks(t *testing.T) {
	logger, ring, err := New(Options{})
	if err != nil || ring != nil {
		t.Fatalf("unexpected result %v %v", ring, err)
	}
	logger.Info().Msg("discarded")
}
