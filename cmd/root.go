package cmd

import (
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/ytget/ytin/internal/app"
)

// App builds the command tree
func App(version string) *cli.Command {
	return &cli.Command{
		Name:    "ytin",
		Version: version,
		Usage:   "Inspect and download media with yt-dlp, keeping a history of finished downloads",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the key=value settings file",
				Sources: cli.EnvVars("YTIN_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("YTIN_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  "tool",
				Usage: "External tool binary, overrides ToolPath for this run",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Download directory, overrides DownloadPath for this run",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Mirror log lines to stderr",
			},
		},
		Commands: []*cli.Command{
			infoCmd(),
			downloadCmd(),
			historyCmd(),
			formatsCmd(),
			serveCmd(),
			revealCmd(),
		},
	}
}

// newApp builds the application context from the global flags
func newApp(cmd *cli.Command) (*app.App, error) {
	var console io.Writer
	if cmd.Bool("verbose") {
		console = os.Stderr
	}
	return app.New(app.Options{
		ConfigPath:  cmd.String("config"),
		LogLevel:    cmd.String("log-level"),
		ToolPath:    cmd.String("tool"),
		DownloadDir: cmd.String("dir"),
		Console:     console,
	})
}

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
