package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ytget/ytin/internal/platform"
)

// Settings file keys
const (
	KeyDownloadPath     = "DownloadPath"
	KeyDownloadFormat   = "DownloadFormat"
	KeyMaxLogLength     = "MAX_LOG_LENGTH"
	KeyToolPath         = "ToolPath"
	KeyHistoryPath      = "HistoryPath"
	KeyLogPath          = "LogPath"
	KeyForceUpdate      = "ForceUpdate"
	KeyPlaylistParallel = "PlaylistParallel"
)

// Default values
const (
	DefaultFileName       = "config.txt"
	DefaultDownloadFormat = "MP4 (720p)"
	DefaultMaxLogLines    = 1024
	DefaultHistoryFile    = "history.json"
	DefaultLogFile        = "log.txt"
	MinMaxLogLines        = 16
	MaxMaxLogLines        = 100000
)

// ErrInvalidValue indicates a known key holds a value that cannot be parsed
var ErrInvalidValue = errors.New("invalid settings value")

// Settings is the application configuration
type Settings struct {
	DownloadPath     string
	DownloadFormat   string
	MaxLogLines      int
	ToolPath         string
	HistoryPath      string
	LogPath          string
	ForceUpdate      bool
	PlaylistParallel bool
}

// field binds one file key to a parser and a formatter
type field struct {
	key    string
	parse  func(s *Settings, value string) error
	format func(s *Settings) string
}

var schema = []field{
	{
		key:    KeyDownloadPath,
		parse:  func(s *Settings, v string) error { s.SetDownloadPath(v); return nil },
		format: func(s *Settings) string { return s.DownloadPath },
	},
	{
		key:    KeyDownloadFormat,
		parse:  func(s *Settings, v string) error { s.SetDownloadFormat(v); return nil },
		format: func(s *Settings) string { return s.DownloadFormat },
	},
	{
		key: KeyMaxLogLength,
		parse: func(s *Settings, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			s.SetMaxLogLines(n)
			return nil
		},
		format: func(s *Settings) string { return strconv.Itoa(s.MaxLogLines) },
	},
	{
		key:    KeyToolPath,
		parse:  func(s *Settings, v string) error { s.SetToolPath(v); return nil },
		format: func(s *Settings) string { return s.ToolPath },
	},
	{
		key:    KeyHistoryPath,
		parse:  func(s *Settings, v string) error { s.HistoryPath = v; return nil },
		format: func(s *Settings) string { return s.HistoryPath },
	},
	{
		key:    KeyLogPath,
		parse:  func(s *Settings, v string) error { s.LogPath = v; return nil },
		format: func(s *Settings) string { return s.LogPath },
	},
	{
		key:    KeyForceUpdate,
		parse:  boolParser(func(s *Settings, b bool) { s.ForceUpdate = b }),
		format: func(s *Settings) string { return strconv.FormatBool(s.ForceUpdate) },
	},
	{
		key:    KeyPlaylistParallel,
		parse:  boolParser(func(s *Settings, b bool) { s.PlaylistParallel = b }),
		format: func(s *Settings) string { return strconv.FormatBool(s.PlaylistParallel) },
	},
}

func boolParser(set func(*Settings, bool)) func(*Settings, string) error {
	return func(s *Settings, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		set(s, b)
		return nil
	}
}

// Keys returns the recognized keys in file order
func Keys() []string {
	keys := make([]string, 0, len(schema))
	for _, f := range schema {
		keys = append(keys, f.key)
	}
	return keys
}

// DefaultPath returns the settings file location in the application data directory
func DefaultPath() string {
	return filepath.Join(platform.AppDataDir(), DefaultFileName)
}

// Default returns settings with every key at its default value
func Default() *Settings {
	downloadDir, err := platform.GetHomeDownloadsDir()
	if err != nil {
		downloadDir = "."
	}
	dataDir := platform.AppDataDir()
	return &Settings{
		DownloadPath:   downloadDir,
		DownloadFormat: DefaultDownloadFormat,
		MaxLogLines:    DefaultMaxLogLines,
		ToolPath:       platform.DefaultBinary,
		HistoryPath:    filepath.Join(dataDir, DefaultHistoryFile),
		LogPath:        filepath.Join(dataDir, DefaultLogFile),
	}
}

// Load reads the settings file at path. A missing file yields defaults,
// which are written back so the user has a file to edit. Unknown keys are
// ignored. Relative history and log paths resolve against the file's
// directory.
func Load(path string) (*Settings, error) {
	s := Default()

	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.Save(path); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	for _, f := range schema {
		value, ok := values[f.key]
		if !ok {
			continue
		}
		if err := f.parse(s, strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, f.key, value, err)
		}
	}

	base := filepath.Dir(path)
	s.HistoryPath = platform.ResolvePath(base, s.HistoryPath)
	s.LogPath = platform.ResolvePath(base, s.LogPath)
	return s, nil
}

// Save writes every key to path, creating its directory when needed
func (s *Settings) Save(path string) error {
	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	values := make(map[string]string, len(schema))
	for _, f := range schema {
		values[f.key] = f.format(s)
	}
	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("failed to write settings %s: %w", path, err)
	}
	return nil
}

// SetDownloadPath sets the download directory; empty keeps the current value
func (s *Settings) SetDownloadPath(dir string) {
	if dir == "" {
		return
	}
	s.DownloadPath = dir
}

// SetDownloadFormat sets the quality label
func (s *Settings) SetDownloadFormat(label string) {
	if label == "" {
		label = DefaultDownloadFormat
	}
	s.DownloadFormat = label
}

// SetMaxLogLines sets the log ring size
func (s *Settings) SetMaxLogLines(n int) {
	if n < MinMaxLogLines {
		n = MinMaxLogLines
	}
	if n > MaxMaxLogLines {
		n = MaxMaxLogLines
	}
	s.MaxLogLines = n
}

// SetToolPath sets the external tool binary
func (s *Settings) SetToolPath(path string) {
	if path == "" {
		path = platform.DefaultBinary
	}
	s.ToolPath = path
}
