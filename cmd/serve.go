package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ytget/ytin/internal/api"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local control API with a websocket event stream",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address",
				Value:   api.DefaultAddr,
				Sources: cli.EnvVars("YTIN_ADDR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			server := api.NewServer(ctx, a.Downloads, a.History, api.Config{
				DefaultQuality: a.Settings.DownloadFormat,
			}, a.Log.With().Str("component", "api").Logger())

			if err := server.Run(ctx, cmd.String("addr")); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
}
