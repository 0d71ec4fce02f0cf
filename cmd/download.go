package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"slices"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/ytget/ytin/internal/download"
)

func downloadCmd() *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "Download a video or every item of a playlist",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "quality",
				Aliases: []string{"q"},
				Usage:   "Quality label, see the formats command (default: DownloadFormat setting)",
			},
			&cli.BoolFlag{
				Name:  "parallel",
				Usage: "Download playlist items concurrently",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			url := cmd.Args().First()
			if url == "" {
				return fmt.Errorf("a URL is required")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			quality := cmd.String("quality")
			if quality == "" {
				quality = a.Settings.DownloadFormat
			}
			if !slices.Contains(download.QualityLabels, quality) {
				return fmt.Errorf("unknown quality %q, see the formats command", quality)
			}

			if cmd.Bool("parallel") {
				a.Downloads.SetPlaylistParallel(true)
			}

			out := output(cmd)
			a.Downloads.SetUpdateCallback(newProgressPrinter(out).print)

			result, err := a.Downloads.Download(ctx, url, quality)
			printResult(out, result)
			if err != nil {
				return err
			}
			return result.Err()
		},
	}
}

func printResult(out io.Writer, result *download.Result) {
	if result == nil {
		return
	}
	for _, item := range result.Items {
		switch {
		case item.Err == nil:
			fmt.Fprintf(out, "done     %s -> %s\n", item.Record.GetDisplayTitle(), item.Record.FilePath())
		default:
			fmt.Fprintf(out, "failed   %s: %v\n", item.Record.GetDisplayTitle(), item.Err)
		}
	}
}

// progressPrinter prints one line per whole percent per record
type progressPrinter struct {
	out io.Writer

	mu   sync.Mutex
	last map[string]int
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, last: make(map[string]int)}
}

func (p *progressPrinter) print(event download.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Kind {
	case download.EventStarted:
		p.last[event.RecordID] = -1
		fmt.Fprintf(p.out, "start    %s\n", title(event))
	case download.EventProgress:
		percent := int(math.Floor(event.Progress.Percent))
		if percent == p.last[event.RecordID] {
			return
		}
		p.last[event.RecordID] = percent
		fmt.Fprintf(p.out, "%6.1f%%  %s  %s ETA %s\n", event.Progress.Percent, title(event), event.Progress.Speed, event.Progress.ETA)
	case download.EventStopped:
		fmt.Fprintf(p.out, "stopped  %s\n", title(event))
	case download.EventFailed:
		fmt.Fprintf(p.out, "error    %s: %s\n", title(event), event.Message)
	}
}

func title(event download.Event) string {
	if event.Title != "" {
		return event.Title
	}
	return event.RecordID
}
