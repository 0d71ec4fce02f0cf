package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateDirectoryIfNotExists(t *testing.T) {
	tempDir := t.TempDir()
	testDir := filepath.Join(tempDir, "test_dir", "nested")

	if _, err := os.Stat(testDir); !os.IsNotExist(err) {
		t.Fatalf("Test directory already exists: %s", testDir)
	}

	if err := CreateDirectoryIfNotExists(testDir); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	if _, err := os.Stat(testDir); os.IsNotExist(err) {
		t.Fatalf("Directory was not created: %s", testDir)
	}

	// Second call should not fail
	if err := CreateDirectoryIfNotExists(testDir); err != nil {
		t.Fatalf("Failed to handle existing directory: %v", err)
	}
}

func TestGetHomeDownloadsDir(t *testing.T) {
	downloadsDir, err := GetHomeDownloadsDir()
	if err != nil {
		t.Fatalf("Failed to get downloads directory: %v", err)
	}

	if filepath.Base(downloadsDir) != DownloadsDirName {
		t.Errorf("Expected directory to end with 'Downloads', got: %s", downloadsDir)
	}
}

func TestOpenFileInManager_NonExistentFile(t *testing.T) {
	nonExistentFile := filepath.Join(t.TempDir(), "nonexistent.txt")

	if err := OpenFileInManager(nonExistentFile); err == nil {
		t.Error("Expected error for non-existent file")
	}
	if err := OpenFileInManager(""); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestResolvePath(t *testing.T) {
	base := filepath.Join("base", "dir")
	abs := filepath.Join(t.TempDir(), "history.json")

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"empty stays empty", "", ""},
		{"relative joins base", "history.json", filepath.Join(base, "history.json")},
		{"absolute unchanged", abs, abs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolvePath(base, tt.path); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestAppDataDir(t *testing.T) {
	if AppDataDir() == "" {
		t.Error("AppDataDir should never be empty")
	}
}
