package download

import (
	"context"

	"github.com/ytget/ytin/internal/model"
	"github.com/ytget/ytin/internal/platform"
)

// Runner runs one external download process at a time.
type Runner interface {
	RunDownload(ctx context.Context, args []string, onLine platform.LineHandler) error
	Terminate()
}

// RunnerFactory creates a fresh Runner for each run.
type RunnerFactory func() Runner

// MetadataSource answers raw metadata queries.
type MetadataSource interface {
	QueryMetadata(ctx context.Context, url string) ([]byte, error)
}

// HistoryWriter persists completed downloads.
type HistoryWriter interface {
	AppendVideo(record *model.MediaRecord) error
	AppendPlaylist(playlist *model.MediaPlaylist) error
}

// Downloader defines the interface for the download service.
type Downloader interface {
	SetUpdateCallback(func(Event))
	Inspect(ctx context.Context, url string) (*model.MediaPlaylist, error)
	Download(ctx context.Context, url, quality string) (*Result, error)
	DownloadVideo(ctx context.Context, record *model.MediaRecord, quality string) error
	DownloadPlaylist(ctx context.Context, playlist *model.MediaPlaylist, quality string) (*Result, error)
	Stop(recordID string) error
	StopAll()
	Active() []*model.MediaRecord
}
