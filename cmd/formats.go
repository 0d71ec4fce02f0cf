package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ytget/ytin/internal/download"
)

func formatsCmd() *cli.Command {
	return &cli.Command{
		Name:  "formats",
		Usage: "List the quality labels accepted by download",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			out := output(cmd)
			for _, label := range download.QualityLabels {
				marker := " "
				if label == download.DefaultQuality {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, label)
			}
			return nil
		},
	}
}
