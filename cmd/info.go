package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/ytget/ytin/internal/model"
)

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show metadata and available formats of a URL",
		ArgsUsage: "<url>",
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

			playlist, err := a.Downloads.Inspect(ctx, url)
			if err != nil {
				return fmt.Errorf("inspect %s: %w", url, err)
			}
			printPlaylist(output(cmd), playlist)
			return nil
		},
	}
}

func printPlaylist(out io.Writer, playlist *model.MediaPlaylist) {
	if !playlist.IsSingle() {
		fmt.Fprintf(out, "Playlist: %s (%s), %d entries\n\n", playlist.Title, playlist.ID, playlist.EntryCount)
	}
	for _, record := range playlist.Records {
		fmt.Fprintf(out, "%s  %s\n", record.ID, record.GetDisplayTitle())
		if record.SourceURL != "" {
			fmt.Fprintf(out, "  %s\n", record.SourceURL)
		}
		if len(record.Formats) == 0 {
			fmt.Fprintln(out, "  no formats")
			continue
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  ID\tEXT\tRESOLUTION\tFPS")
		for _, f := range record.Formats {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", f.FormatID, f.Extension, f.Resolution, f.FrameRate)
		}
		tw.Flush()
		fmt.Fprintln(out)
	}
}
