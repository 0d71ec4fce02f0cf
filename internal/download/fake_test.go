package download

import (
	"context"
	"sync"

	"github.com/ytget/ytin/internal/model"
	"github.com/ytget/ytin/internal/platform"
)

// fakeRunner replays scripted lines instead of running a process
type fakeRunner struct {
	lines []platform.Line
	err   error
	block bool

	mu         sync.Mutex
	args       []string
	terminates int
	once       sync.Once
	done       chan struct{}
	started    chan struct{}
}

func newFakeRunner(lines ...platform.Line) *fakeRunner {
	return &fakeRunner{
		lines:   lines,
		done:    make(chan struct{}),
		started: make(chan struct{}),
	}
}

func (f *fakeRunner) RunDownload(ctx context.Context, args []string, onLine platform.LineHandler) error {
	f.mu.Lock()
	f.args = args
	f.mu.Unlock()
	close(f.started)

	if err := ctx.Err(); err != nil {
		return err
	}
	for _, line := range f.lines {
		if f.isTerminated() {
			return platform.ErrTerminated
		}
		onLine(line)
	}
	if f.isTerminated() {
		return platform.ErrTerminated
	}
	if f.block {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return platform.ErrTerminated
		}
	}
	return f.err
}

func (f *fakeRunner) Terminate() {
	f.mu.Lock()
	f.terminates++
	f.mu.Unlock()
	f.once.Do(func() { close(f.done) })
}

func (f *fakeRunner) isTerminated() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *fakeRunner) terminateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.terminates
}

func (f *fakeRunner) lastArgs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.args
}

func stdout(text string) platform.Line {
	return platform.Line{Stream: platform.Stdout, Text: text}
}

func stderr(text string) platform.Line {
	return platform.Line{Stream: platform.Stderr, Text: text}
}

// fakeMetadata returns canned payloads per URL
type fakeMetadata struct {
	mu       sync.Mutex
	payloads map[string]string
	err      error
	calls    int
}

func (f *fakeMetadata) QueryMetadata(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.payloads[url]), nil
}

// fakeHistory records appended entries
type fakeHistory struct {
	mu        sync.Mutex
	videos    []*model.MediaRecord
	playlists []*model.MediaPlaylist
	err       error
}

func (f *fakeHistory) AppendVideo(record *model.MediaRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.videos = append(f.videos, record.Clone())
	return nil
}

func (f *fakeHistory) AppendPlaylist(playlist *model.MediaPlaylist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.playlists = append(f.playlists, playlist.Clone())
	return nil
}
