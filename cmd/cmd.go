// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/sortify/internal/formatter"
	"github.com/urfave/cli/v3"
)

func formatNames() string {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// setupCommand creates the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the session database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand runs the CLI OAuth flow.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "auth",
		Aliases: []string{"login"},
		Usage:   "Authorize sortify to read your Spotify library",
		Action:  r.Auth,
	}
}

// groupCommand runs the grouping pipeline once and prints the playlists.
func groupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "group",
		Aliases: []string{"sort"},
		Usage:   "Group saved tracks into playlists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   fmt.Sprintf("Output format (%s)", formatNames()),
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to a file instead of stdout",
			},
			&cli.IntFlag{
				Name:  "clusters",
				Usage: "Number of playlists, at most 8 (overrides grouping.clusters)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent audio-feature requests (overrides grouping.workers)",
			},
		},
		Action: r.Group,
	}
}

// serveCommand runs the web app.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web app",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
			&cli.DurationFlag{
				Name:  "session-ttl",
				Usage: "Delete sessions idle for longer than this at startup",
				Value: defaultSessionTTL,
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for browsing the generated playlists.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Group saved tracks and browse the playlists interactively",
		Action:  r.TUI,
	}
}
