package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/ytget/ytin/internal/model"
)

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Manage the history of finished downloads",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show every video and playlist in history",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := newApp(cmd)
					if err != nil {
						return err
					}
					defer a.Close()

					doc, err := a.History.Load()
					if err != nil {
						return err
					}
					printHistory(output(cmd), doc)
					return nil
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a video from history and from every playlist",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id := cmd.Args().First()
					if id == "" {
						return fmt.Errorf("a record id is required")
					}

					a, err := newApp(cmd)
					if err != nil {
						return err
					}
					defer a.Close()

					removed, err := a.History.RemoveByID(id)
					if err != nil {
						return err
					}
					if !removed {
						return fmt.Errorf("no history entry with id %q", id)
					}
					fmt.Fprintf(output(cmd), "removed %s\n", id)
					return nil
				},
			},
			{
				Name:      "remove-playlist",
				Usage:     "Remove the first playlist entry with the given title",
				ArgsUsage: "<title>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					title := cmd.Args().First()
					if title == "" {
						return fmt.Errorf("a playlist title is required")
					}

					a, err := newApp(cmd)
					if err != nil {
						return err
					}
					defer a.Close()

					removed, err := a.History.RemovePlaylistByTitle(title)
					if err != nil {
						return err
					}
					if !removed {
						return fmt.Errorf("no playlist titled %q", title)
					}
					fmt.Fprintf(output(cmd), "removed playlist %s\n", title)
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Delete all history entries",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := newApp(cmd)
					if err != nil {
						return err
					}
					defer a.Close()

					if err := a.History.Clear(); err != nil {
						return err
					}
					fmt.Fprintln(output(cmd), "history cleared")
					return nil
				},
			},
		},
	}
}

func printHistory(out io.Writer, doc *model.HistoryDocument) {
	if len(doc.Entries) == 0 {
		fmt.Fprintln(out, "history is empty")
		return
	}
	for _, entry := range doc.Entries {
		switch entry.Kind {
		case model.EntryKindVideo:
			if entry.Media == nil {
				continue
			}
			printHistoryRecord(out, "", entry.Media)
		case model.EntryKindPlaylist:
			if entry.Playlist == nil {
				continue
			}
			fmt.Fprintf(out, "%s (%d)\n", entry.Playlist.Title, entry.Playlist.EntryCount)
			for _, record := range entry.Playlist.Records {
				if record == nil {
					continue
				}
				printHistoryRecord(out, "  ", record)
			}
		}
	}
}

func printHistoryRecord(out io.Writer, indent string, record *model.MediaRecord) {
	saved := ""
	if !record.SaveTimestamp.IsZero() {
		saved = record.SaveTimestamp.Local().Format("2006-01-02 15:04")
	}
	fmt.Fprintf(out, "%s%s  %s  %s  %s\n", indent, record.ID, saved, record.CompactSize, record.FilePath())
}
