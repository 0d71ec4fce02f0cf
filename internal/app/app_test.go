package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ytget/ytin/internal/config"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, config.DefaultFileName)
	content := strings.Join([]string{
		"DownloadPath=" + filepath.Join(dir, "downloads"),
		"ToolPath=/usr/bin/yt-dlp",
		"HistoryPath=history.json",
		"LogPath=log.txt",
		"MAX_LOG_LENGTH=32",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestNew_WiresCollaborators(t *testing.T) {
	dir := t.TempDir()
	a, err := New(Options{ConfigPath: writeConfig(t, dir)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.History.Path() != filepath.Join(dir, "history.json") {
		t.Errorf("unexpected history path %s", a.History.Path())
	}
	if a.Ring == nil || a.Ring.Path() != filepath.Join(dir, "log.txt") {
		t.Errorf("unexpected ring %v", a.Ring)
	}
	if a.Tool.Binary() != "/usr/bin/yt-dlp" {
		t.Errorf("unexpected tool %s", a.Tool.Binary())
	}

	a.Log.Info().Msg("hello")
	lines, err := a.Ring.Lines()
	if err != nil || len(lines) == 0 {
		t.Errorf("expected a log line, got %v, %v", lines, err)
	}
}

func TestNew_OverridesAreSessionOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir)

	a, err := New(Options{ConfigPath: path, ToolPath: "/opt/custom-tool", DownloadDir: "/tmp/elsewhere"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Settings.ToolPath != "/opt/custom-tool" || a.Settings.DownloadPath != "/tmp/elsewhere" {
		t.Errorf("overrides not applied: %+v", a.Settings)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	reloaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.ToolPath != "/usr/bin/yt-dlp" {
		t.Errorf("override leaked into settings file: %s", reloaded.ToolPath)
	}
}

func TestSetDownloadPath_Persists(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir)

	a, err := New(Options{ConfigPath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target := filepath.Join(dir, "new-downloads")
	if err := a.SetDownloadPath(target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("expected directory to be created: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	reloaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.DownloadPath != target {
		t.Errorf("expected %s, got %s", target, reloaded.DownloadPath)
	}

	if err := a.SetDownloadPath(""); err == nil {
		t.Error("expected error for empty path")
	}
}
