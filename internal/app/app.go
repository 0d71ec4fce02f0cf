package app

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ytget/ytin/internal/config"
	"github.com/ytget/ytin/internal/download"
	"github.com/ytget/ytin/internal/history"
	"github.com/ytget/ytin/internal/logging"
	"github.com/ytget/ytin/internal/platform"
)

// Options are the command line overrides. Overrides apply to this session
// only and are not written back to the settings file.
type Options struct {
	ConfigPath  string
	LogLevel    string
	ToolPath    string
	DownloadDir string
	Console     io.Writer
}

// App owns the long-lived collaborators of one process
type App struct {
	ConfigPath string
	Settings   *config.Settings
	Log        zerolog.Logger
	Ring       *logging.RingFile
	History    *history.Store
	Tool       *platform.ToolClient
	Downloads  *download.Service

	mu        sync.Mutex
	persisted *config.Settings
}

// New loads the settings file and builds every collaborator
func New(opts Options) (*App, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}

	persisted, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	effective := *persisted
	if opts.ToolPath != "" {
		effective.SetToolPath(opts.ToolPath)
	}
	if opts.DownloadDir != "" {
		effective.SetDownloadPath(opts.DownloadDir)
	}

	log, ring, err := logging.New(logging.Options{
		Path:     effective.LogPath,
		MaxLines: effective.MaxLogLines,
		Level:    opts.LogLevel,
		Console:  opts.Console,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		ConfigPath: path,
		Settings:   &effective,
		Log:        log,
		Ring:       ring,
		History:    history.NewStore(effective.HistoryPath, log.With().Str("component", "history").Logger()),
		persisted:  persisted,
	}
	a.Tool = platform.NewToolClient(effective.ToolPath, log.With().Str("component", "tool").Logger())
	a.Downloads = download.NewService(a.Tool, a.NewRunner, a.History, download.Options{
		DownloadDir:      effective.DownloadPath,
		ForceUpdate:      effective.ForceUpdate,
		PlaylistParallel: effective.PlaylistParallel,
	}, log.With().Str("component", "download").Logger())

	log.Debug().Str("config", path).Str("tool", effective.ToolPath).Msg("application initialized")
	return a, nil
}

// NewRunner creates a tool client for one download run
func (a *App) NewRunner() download.Runner {
	return platform.NewToolClient(a.Settings.ToolPath, a.Log.With().Str("component", "tool").Logger())
}

// SetDownloadPath changes the download directory for this session and the
// settings file
func (a *App) SetDownloadPath(dir string) error {
	if dir == "" {
		return errors.New("download path is empty")
	}
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	a.mu.Lock()
	a.Settings.SetDownloadPath(dir)
	a.persisted.SetDownloadPath(dir)
	a.mu.Unlock()

	a.Downloads.SetDownloadDirectory(dir)
	return nil
}

// Close stops active downloads and saves the settings file
func (a *App) Close() error {
	a.Downloads.StopAll()

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.persisted.Save(a.ConfigPath); err != nil {
		a.Log.Error().Err(err).Msg("error while saving config")
		return err
	}
	return nil
}
