package download

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/ytget/ytin/internal/model"
	"github.com/ytget/ytin/internal/platform"
)

// Metadata cache constants
const (
	DefaultCacheTTL     = 10 * time.Minute
	CacheCleanupPeriod  = 20 * time.Minute
	metadataCachePrefix = "metadata:"
)

// ErrNoSourceURL indicates a record cannot be downloaded because it has no URL
var ErrNoSourceURL = errors.New("record has no source url")

// Options configures a Service
type Options struct {
	DownloadDir      string
	ForceUpdate      bool
	PlaylistParallel bool
	CacheTTL         time.Duration
}

// ItemResult is the outcome of one record of a download request
type ItemResult struct {
	Record *model.MediaRecord
	State  model.RunState
	Err    error
}

// Result is the outcome of a download request
type Result struct {
	Playlist *model.MediaPlaylist
	Items    []ItemResult
}

// Completed returns the number of records that finished downloading
func (r *Result) Completed() int {
	n := 0
	for _, item := range r.Items {
		if item.State == model.RunStateCompleted {
			n++
		}
	}
	return n
}

// Err joins the errors of every failed item
func (r *Result) Err() error {
	var errs []error
	for _, item := range r.Items {
		if item.Err != nil {
			errs = append(errs, item.Err)
		}
	}
	return errors.Join(errs...)
}

var _ Downloader = (*Service)(nil)

// Service handles download operations
type Service struct {
	metadata  MetadataSource
	newRunner RunnerFactory
	history   HistoryWriter
	log       zerolog.Logger
	cache     *cache.Cache
	opts      Options

	mu       sync.Mutex
	active   map[string]*Orchestrator
	onUpdate func(Event)
}

// NewService creates a new download service. history may be nil, in which
// case completed downloads are not persisted.
func NewService(metadata MetadataSource, newRunner RunnerFactory, history HistoryWriter, opts Options, log zerolog.Logger) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	return &Service{
		metadata:  metadata,
		newRunner: newRunner,
		history:   history,
		log:       log,
		cache:     cache.New(opts.CacheTTL, CacheCleanupPeriod),
		opts:      opts,
		active:    make(map[string]*Orchestrator),
	}
}

// SetUpdateCallback sets the callback function for run events
func (s *Service) SetUpdateCallback(callback func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = callback
}

// SetDownloadDirectory sets the download directory
func (s *Service) SetDownloadDirectory(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.DownloadDir = dir
}

// SetPlaylistParallel toggles concurrent download of playlist members
func (s *Service) SetPlaylistParallel(parallel bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.PlaylistParallel = parallel
}

// Inspect queries and parses the metadata of url. Results are cached per
// URL; callers always receive their own copy.
func (s *Service) Inspect(ctx context.Context, url string) (*model.MediaPlaylist, error) {
	key := metadataCachePrefix + url
	if cached, found := s.cache.Get(key); found {
		s.log.Debug().Str("url", url).Msg("metadata cache hit")
		return cached.(*model.MediaPlaylist).Clone(), nil
	}

	s.log.Info().Str("url", url).Msg("getting information from url")
	data, err := s.metadata.QueryMetadata(ctx, url)
	if err != nil {
		s.log.Error().Err(err).Str("url", url).Msg("metadata query failed")
		return nil, err
	}

	playlist, err := platform.ParseMetadata(data)
	if err != nil {
		s.log.Error().Err(err).Str("url", url).Msg("metadata parse failed")
		return nil, err
	}
	if playlist.IsSingle() && playlist.Records[0].SourceURL == "" {
		playlist.Records[0].SourceURL = url
	}

	s.cache.SetDefault(key, playlist.Clone())
	return playlist, nil
}

// Download inspects url and downloads the single item or every playlist
// member in the given quality. Per-item failures are reported in the
// result; the error covers the metadata query and history persistence.
func (s *Service) Download(ctx context.Context, url, quality string) (*Result, error) {
	playlist, err := s.Inspect(ctx, url)
	if err != nil {
		return nil, err
	}

	if !playlist.IsSingle() {
		return s.DownloadPlaylist(ctx, playlist, quality)
	}

	record := playlist.Records[0]
	err = s.downloadRecord(ctx, record, quality)
	result := &Result{
		Playlist: playlist,
		Items:    []ItemResult{{Record: record, State: stateOf(err), Err: err}},
	}
	if err != nil {
		return result, nil
	}
	return result, s.persistVideo(record)
}

// DownloadVideo downloads one record and appends it to history on completion
func (s *Service) DownloadVideo(ctx context.Context, record *model.MediaRecord, quality string) error {
	if err := s.downloadRecord(ctx, record, quality); err != nil {
		return err
	}
	return s.persistVideo(record)
}

func (s *Service) persistVideo(record *model.MediaRecord) error {
	if s.history == nil {
		return nil
	}
	if err := s.history.AppendVideo(record); err != nil {
		s.log.Error().Err(err).Str("id", record.ID).Msg("failed to save download to history")
		return err
	}
	return nil
}

// DownloadPlaylist downloads every member of the playlist. A failing member
// does not abort its siblings. Completed members are appended to history
// as one playlist entry; nothing is persisted when none completed.
func (s *Service) DownloadPlaylist(ctx context.Context, playlist *model.MediaPlaylist, quality string) (*Result, error) {
	s.mu.Lock()
	parallel := s.opts.PlaylistParallel
	s.mu.Unlock()

	s.log.Info().Str("playlist", playlist.ID).Str("title", playlist.Title).Int("entries", len(playlist.Records)).Msg("downloading playlist")

	result := &Result{Playlist: playlist, Items: make([]ItemResult, len(playlist.Records))}
	downloadItem := func(i int) {
		record := playlist.Records[i]
		err := s.downloadRecord(ctx, record, quality)
		result.Items[i] = ItemResult{Record: record, State: stateOf(err), Err: err}
	}

	if parallel {
		var wg sync.WaitGroup
		for i := range playlist.Records {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				downloadItem(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range playlist.Records {
			if ctx.Err() != nil {
				result.Items[i] = ItemResult{Record: playlist.Records[i], State: model.RunStateStopped, Err: ErrStopped}
				continue
			}
			downloadItem(i)
		}
	}

	completed := model.NewPlaylist(playlist.ID, playlist.Title)
	for _, item := range result.Items {
		if item.State == model.RunStateCompleted {
			completed.AddRecord(item.Record)
		}
	}
	s.log.Info().Str("playlist", playlist.ID).Int("completed", completed.EntryCount).Int("total", len(playlist.Records)).Msg("playlist finished")

	if completed.EntryCount == 0 || s.history == nil {
		return result, nil
	}
	if err := s.history.AppendPlaylist(completed); err != nil {
		s.log.Error().Err(err).Str("playlist", playlist.ID).Msg("failed to save playlist to history")
		return result, err
	}
	return result, nil
}

// Stop stops the active run of the record
func (s *Service) Stop(recordID string) error {
	s.mu.Lock()
	orch, exists := s.active[recordID]
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrNotRunning, recordID)
	}
	orch.Stop()
	return nil
}

// StopAll stops every active run
func (s *Service) StopAll() {
	s.mu.Lock()
	runs := make([]*Orchestrator, 0, len(s.active))
	for _, orch := range s.active {
		runs = append(runs, orch)
	}
	s.mu.Unlock()

	for _, orch := range runs {
		orch.Stop()
	}
}

// Active returns snapshots of the records currently downloading
func (s *Service) Active() []*model.MediaRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]*model.MediaRecord, 0, len(s.active))
	for _, orch := range s.active {
		records = append(records, orch.Snapshot())
	}
	return records
}

func (s *Service) downloadRecord(ctx context.Context, record *model.MediaRecord, quality string) error {
	selection, err := SelectFormat(record, quality)
	if err != nil {
		s.log.Error().Err(err).Str("file", record.FileName).Msg("format not available")
		return err
	}
	if record.SourceURL == "" {
		return fmt.Errorf("%w: %s", ErrNoSourceURL, record.ID)
	}

	s.mu.Lock()
	opts := s.opts
	s.mu.Unlock()

	record.PrepareFileName(selection.Quality.Extension)
	record.SavePath = opts.DownloadDir
	record.ChosenFormat = selection.Format.FormatID

	args := platform.DownloadArgs(platform.DownloadOptions{
		URL:         record.SourceURL,
		FormatID:    selection.Format.FormatID,
		SaveDir:     opts.DownloadDir,
		ForceUpdate: opts.ForceUpdate,
		AudioFormat: selection.AudioFormat,
	})
	return s.run(ctx, record, args)
}

func (s *Service) run(ctx context.Context, record *model.MediaRecord, args []string) error {
	orch := NewOrchestrator(s.newRunner(), s.log)

	s.mu.Lock()
	if _, busy := s.active[record.ID]; busy {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s is already downloading", ErrAlreadyStarted, record.ID)
	}
	s.active[record.ID] = orch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.active, record.ID)
		s.mu.Unlock()
	}()

	unsubscribe := orch.Subscribe(s.notifyUpdate)
	defer unsubscribe()

	return orch.Start(ctx, args, record)
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(event Event) {
	s.mu.Lock()
	callback := s.onUpdate
	s.mu.Unlock()

	if callback != nil {
		callback(event)
	}
}

func stateOf(err error) model.RunState {
	switch {
	case err == nil:
		return model.RunStateCompleted
	case errors.Is(err, ErrStopped):
		return model.RunStateStopped
	default:
		return model.RunStateFailed
	}
}
