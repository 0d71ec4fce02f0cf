package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ytget/ytin/internal/platform"
)

func revealCmd() *cli.Command {
	return &cli.Command{
		Name:      "reveal",
		Usage:     "Show a downloaded file in the system file manager",
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

			doc, err := a.History.Load()
			if err != nil {
				return err
			}
			record, ok := doc.Find(id)
			if !ok {
				return fmt.Errorf("no history entry with id %q", id)
			}
			if err := platform.OpenFileInManager(record.FilePath()); err != nil {
				return fmt.Errorf("reveal %s: %w", id, err)
			}
			return nil
		},
	}
}
