// Package cli provides the command-line interface for tmxsync.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/klauern/tmxsync/internal/config"
	"github.com/klauern/tmxsync/internal/logging"
	"github.com/klauern/tmxsync/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:      "tmxsync",
		Usage:     "Synchronize tile terrain, probability and properties across Tiled maps",
		UsageText: "tmxsync [options] <map.tmx> <map.tmx> [map.tmx...]",
		Description: `Compare the tilesets shared by several Tiled maps and make their
   tile metadata agree. Terrain lists are merged automatically; every tile
   whose terrain, probability or properties differ is resolved interactively
   (or from a decision script) and the changed maps are written back.

   Examples:
     tmxsync world.tmx dungeon.tmx
     tmxsync --dry-run maps/*.tmx
     tmxsync --resolver script --script decisions.toml a.tmx b.tmx`,
		Version:   Version,
		ArgsUsage: "<map.tmx> <map.tmx> [map.tmx...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the config file",
				Value: config.FilePath(),
			},
			&cli.StringFlag{
				Name:  "resolver",
				Usage: "How conflicts are resolved: auto, prompt, tui, script",
			},
			&cli.StringFlag{
				Name:  "script",
				Usage: "TOML decision script used by the script resolver",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Resolve everything but do not write any map",
			},
			&cli.BoolFlag{
				Name:  "no-backup",
				Usage: "Skip backing up maps before they are written",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if err := configureColors(cmd); err != nil {
				return ctx, err
			}
			return ctx, configureLogging(cmd)
		},
		Action: syncAction,
		Commands: []*cli.Command{
			checkCommand(),
			backupsCommand(),
			versionCommand(),
		},
	}
	return app.Run(ctx, args)
}

// loadConfig reads the config file named by --config. A missing file at the
// default location yields the defaults.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	if path == "" || path == config.FilePath() {
		return config.Load()
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// configureColors sets up color output based on CLI flags and config.
func configureColors(cmd *cli.Command) error {
	if cmd.Bool("no-color") {
		ui.DisableColors()
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		// reported again by the command that needs the config
		return nil
	}
	return ui.SetColorMode(cfg.Output.Color)
}

// configureLogging sets up the logging level based on CLI flags.
func configureLogging(cmd *cli.Command) error {
	opts := logging.DefaultOptions()

	if cmd.Bool("debug") {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") {
		opts.Level = slog.LevelInfo
	}

	logger := logging.New(opts)
	logging.SetDefault(logger)

	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	return nil
}
