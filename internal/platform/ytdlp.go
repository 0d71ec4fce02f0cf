package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBinary is the external tool looked up on PATH when none is configured
const DefaultBinary = "yt-dlp"

// Command line flags understood by the external tool
const (
	FlagDumpSingleJSON = "--dump-single-json"
	FlagNoWarnings     = "--no-warnings"
	FlagNewline        = "--newline"
	FlagFormat         = "-f"
	FlagPaths          = "-P"
	FlagUpdate         = "--update"
	FlagExtractAudio   = "-x"
	FlagAudioFormat    = "--audio-format"
)

// DefaultWaitDelay bounds how long Wait keeps reading pipes after the
// process exits or is killed
const DefaultWaitDelay = 5 * time.Second

// Stream identifies the output stream a line arrived on
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Line is one complete line of process output
type Line struct {
	Stream Stream
	Text   string
}

// LineHandler receives process output lines. It is called from the process
// I/O goroutines, one per stream, so it must be safe for concurrent use.
type LineHandler func(Line)

// DownloadOptions describes one download invocation
type DownloadOptions struct {
	URL         string
	FormatID    string
	SaveDir     string
	ForceUpdate bool
	AudioFormat string // non-empty requests audio extraction into this format
}

// MetadataArgs returns the arguments of a playlist-aware metadata query
func MetadataArgs(url string) []string {
	return []string{FlagDumpSingleJSON, FlagNoWarnings, url}
}

// DownloadArgs returns the arguments of a download invocation
func DownloadArgs(opts DownloadOptions) []string {
	var args []string
	if opts.ForceUpdate {
		args = append(args, FlagUpdate)
	}
	args = append(args, FlagNewline)
	if opts.FormatID != "" {
		args = append(args, FlagFormat, opts.FormatID)
	}
	if opts.AudioFormat != "" {
		args = append(args, FlagExtractAudio, FlagAudioFormat, opts.AudioFormat)
	}
	if opts.SaveDir != "" {
		args = append(args, FlagPaths, opts.SaveDir)
	}
	return append(args, opts.URL)
}

// ToolClient runs the external media tool. A client owns at most one
// download process at a time; metadata queries are independent of it.
type ToolClient struct {
	binary    string
	baseArgs  []string
	env       []string
	waitDelay time.Duration
	log       zerolog.Logger

	mu         sync.Mutex
	running    bool
	terminated bool
	cancel     context.CancelFunc
}

// NewToolClient creates a client for the given binary
func NewToolClient(binary string, log zerolog.Logger) *ToolClient {
	if binary == "" {
		binary = DefaultBinary
	}
	return &ToolClient{
		binary:    binary,
		waitDelay: DefaultWaitDelay,
		log:       log,
	}
}

// Binary returns the configured executable
func (c *ToolClient) Binary() string {
	return c.binary
}

func (c *ToolClient) command(ctx context.Context, args []string) *exec.Cmd {
	full := make([]string, 0, len(c.baseArgs)+len(args))
	full = append(full, c.baseArgs...)
	full = append(full, args...)

	cmd := exec.CommandContext(ctx, c.binary, full...)
	if c.env != nil {
		cmd.Env = c.env
	}
	cmd.WaitDelay = c.waitDelay
	return cmd
}

// QueryMetadata runs a metadata query and returns the raw JSON written to
// standard output. Standard error is logged and attached to failures only.
func (c *ToolClient) QueryMetadata(ctx context.Context, url string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := c.command(ctx, MetadataArgs(url))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.log.Debug().Str("binary", c.binary).Str("url", url).Msg("querying metadata")

	if err := cmd.Start(); err != nil {
		return nil, &ToolError{Op: "metadata", Binary: c.binary, Kind: ErrLaunchFailure, Err: err}
	}
	waitErr := cmd.Wait()

	diagnostics := strings.TrimSpace(stderr.String())
	if diagnostics != "" {
		c.log.Warn().Str("url", url).Str("stderr", diagnostics).Msg("external tool diagnostics")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(stdout.Bytes())) == 0 {
		return nil, &ToolError{Op: "metadata", Binary: c.binary, Stderr: diagnostics, Kind: ErrEmptyResponse, Err: waitErr}
	}
	return stdout.Bytes(), nil
}

// RunDownload launches a download process and streams every output line to
// onLine until the process exits or is terminated. It returns nil on a zero
// exit status, ErrTerminated after Terminate, or the context error when ctx
// is cancelled.
func (c *ToolClient) RunDownload(ctx context.Context, args []string, onLine LineHandler) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrProcessActive
	}
	c.running = true
	c.terminated = false
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	stdout := newLineWriter(Stdout, onLine)
	stderr := newLineWriter(Stderr, onLine)
	cmd := c.command(runCtx, args)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	c.log.Debug().Str("binary", c.binary).Strs("args", args).Msg("starting download process")

	if err := cmd.Start(); err != nil {
		if stopErr := c.stopCause(ctx); stopErr != nil {
			return stopErr
		}
		return &ToolError{Op: "download", Binary: c.binary, Kind: ErrLaunchFailure, Err: err}
	}

	err := cmd.Wait()
	stdout.Flush()
	stderr.Flush()

	if stopErr := c.stopCause(ctx); stopErr != nil {
		return stopErr
	}
	if err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		return fmt.Errorf("%s exited: %w", c.binary, err)
	}
	return nil
}

func (c *ToolClient) stopCause(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminated {
		return ErrTerminated
	}
	return nil
}

// Terminate kills the active download process immediately. It is a no-op
// when no process is running.
func (c *ToolClient) Terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || c.cancel == nil {
		return
	}
	c.terminated = true
	c.cancel()
	c.log.Debug().Str("binary", c.binary).Msg("download process terminated")
}

// lineWriter splits a byte stream into lines on '\n' or '\r'; the external
// tool redraws progress with carriage returns.
type lineWriter struct {
	stream Stream
	onLine LineHandler

	mu  sync.Mutex
	buf []byte
}

func newLineWriter(stream Stream, onLine LineHandler) *lineWriter {
	return &lineWriter{stream: stream, onLine: onLine}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, b := range p {
		if b == '\n' || b == '\r' {
			w.emit()
			continue
		}
		w.buf = append(w.buf, b)
	}
	return len(p), nil
}

// Flush delivers a trailing line without terminator
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.emit()
}

func (w *lineWriter) emit() {
	if len(w.buf) == 0 {
		return
	}
	text := strings.ToValidUTF8(strings.TrimSpace(string(w.buf)), "")
	w.buf = w.buf[:0]
	if text == "" || w.onLine == nil {
		return
	}
	w.onLine(Line{Stream: w.stream, Text: text})
}
