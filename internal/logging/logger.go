package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TimestampLayout is the time format of log lines
const TimestampLayout = "2006-01-02 15:04:05"

// Options configures New
type Options struct {
	Path     string    // ring file location; empty disables the file sink
	MaxLines int       // ring size
	Level    string    // zerolog level name, "info" when empty
	Console  io.Writer // optional console mirror, e.g. os.Stderr
}

// New builds a logger writing to the ring file and the optional console.
// The returned ring is nil when no path is configured.
func New(opts Options) (zerolog.Logger, *RingFile, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var writers []io.Writer
	var ring *RingFile
	if opts.Path != "" {
		r, err := NewRingFile(opts.Path, opts.MaxLines)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		ring = r
		writers = append(writers, LineWriter(ring, true))
	}
	if opts.Console != nil {
		writers = append(writers, LineWriter(opts.Console, false))
	}
	if len(writers) == 0 {
		return zerolog.Nop(), nil, nil
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
	return logger, ring, nil
}

// LineWriter formats zerolog events as "[timestamp] LEVEL message key=value"
func LineWriter(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:             out,
		NoColor:         noColor,
		FormatTimestamp: formatTimestamp,
		FormatLevel: func(i any) string {
			if i == nil {
				return "???"
			}
			return strings.ToUpper(fmt.Sprint(i))
		},
	}
}

func formatTimestamp(i any) string {
	s, _ := i.(string)
	t, err := time.Parse(zerolog.TimeFieldFormat, s)
	if err != nil {
		return "[" + s + "]"
	}
	return "[" + t.Local().Format(TimestampLayout) + "]"
}
