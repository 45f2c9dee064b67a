package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/tmxsync/internal/backup"
	"github.com/klauern/tmxsync/internal/config"
	"github.com/klauern/tmxsync/internal/logging"
	"github.com/klauern/tmxsync/internal/progress"
	"github.com/klauern/tmxsync/internal/sync"
	"github.com/klauern/tmxsync/internal/tmx"
	"github.com/klauern/tmxsync/internal/ui"
	"github.com/klauern/tmxsync/internal/ui/tui"
	"github.com/klauern/tmxsync/internal/validation"
)

// errTooFewMaps is returned when fewer than two maps are named.
var errTooFewMaps = errors.New("at least 2 map files are required")

func syncAction(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) < 2 {
		return fmt.Errorf("%w, got %d (usage: %s)", errTooFewMaps, len(paths), cmd.UsageText)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dryRun := cmd.Bool("dry-run")
	docs, err := openMaps(paths, cfg, !dryRun)
	if err != nil {
		return err
	}

	resolver, hooks, err := buildResolver(cmd, cfg)
	if err != nil {
		return err
	}
	defer hooks.close()

	opts := sync.Options{
		Resolver: resolver,
		DryRun:   dryRun,
		Progress: hooks.progress,
	}
	if !dryRun && cfg.Backup.Enabled && !cmd.Bool("no-backup") {
		opts.BeforeSave = backupHook(backup.NewStore(cfg.BackupLocation()), cfg.Backup.MaxBackups)
	}

	result, err := sync.New(docs, opts).Run(ctx)
	hooks.close()
	if err != nil {
		if errors.Is(err, tui.ErrInterrupted) {
			fmt.Println(ui.StatusWarning("Interrupted, no maps were written"))
		}
		return err
	}

	fmt.Println()
	fmt.Print(result.Summary())
	if len(result.Saved) > 0 {
		fmt.Println(ui.StatusSuccess(fmt.Sprintf("Wrote %d map(s)", len(result.Saved))))
	} else if len(result.Unsaved) == 0 {
		fmt.Println(ui.StatusSuccess("Maps already in sync, nothing written"))
	}
	return nil
}

// openMaps validates and loads every map named on the command line. With
// writable set, each map's directory must accept the rewritten file.
func openMaps(paths []string, cfg *config.Config, writable bool) ([]sync.Document, error) {
	checked, err := validation.ValidateMaps(paths, validation.Options{RequireWritePermission: writable})
	if err != nil {
		return nil, err
	}
	for _, w := range checked.Warnings {
		fmt.Fprintln(os.Stderr, ui.StatusWarning(w))
	}

	opts := tmx.Options{Indent: cfg.Output.Indent}
	docs := make([]sync.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := tmx.Open(p, opts)
		if err != nil {
			return nil, err
		}
		logging.Debug("map loaded", logging.Path(p))
		docs = append(docs, doc)
	}
	return docs, nil
}

// runHooks holds what a resolver needs torn down after the run.
type runHooks struct {
	progress sync.ProgressCallback
	tracker  *progress.Tracker
}

func (h *runHooks) close() {
	if h.tracker != nil {
		h.tracker.Close()
	}
}

// buildResolver picks the resolver from --resolver, the config file and
// whether a terminal is attached.
func buildResolver(cmd *cli.Command, cfg *config.Config) (sync.Resolver, *runHooks, error) {
	mode := cfg.GetResolverMode()
	if v := cmd.String("resolver"); v != "" {
		m, err := config.ParseResolverMode(v)
		if err != nil {
			return nil, nil, err
		}
		mode = m
	}

	script := cfg.ScriptPath()
	if v := cmd.String("script"); v != "" {
		script = v
		if cmd.String("resolver") == "" {
			mode = config.ModeScript
		}
	}

	if mode == config.ModeAuto {
		if tui.Available(os.Stdin.Fd(), os.Stdout.Fd()) {
			mode = config.ModeTUI
		} else {
			mode = config.ModePrompt
		}
	}
	logging.Debug("resolver selected", slog.String("mode", string(mode)))

	hooks := &runHooks{}
	switch mode {
	case config.ModeTUI:
		return tui.NewResolver(), hooks, nil
	case config.ModeScript:
		if script == "" {
			return nil, nil, errors.New("the script resolver needs --script or resolver.script in the config")
		}
		r, err := sync.LoadScript(script)
		if err != nil {
			return nil, nil, err
		}
		hooks.tracker = progress.NewTracker(os.Stderr)
		hooks.progress = hooks.tracker.Callback()
		return r, hooks, nil
	default:
		return NewPromptResolver(os.Stdin, os.Stdout), hooks, nil
	}
}

// backupHook copies each map to the backup store before it is overwritten
// and trims old backups of that map.
func backupHook(store *backup.Store, maxBackups int) func(sync.Document) error {
	return func(doc sync.Document) error {
		path := doc.Name()
		if p, ok := doc.(interface{ Path() string }); ok {
			path = p.Path()
		}

		meta, err := store.Create(path, backup.Options{Description: "before tmxsync save"})
		if err != nil {
			return fmt.Errorf("failed to back up %s: %w", path, err)
		}
		fmt.Println(ui.Dim(fmt.Sprintf("Backed up %s as %s", path, meta.ID)))

		if maxBackups <= 0 {
			return nil
		}
		deleted, err := store.Prune(backup.CleanupOptions{MaxBackups: maxBackups, Source: path})
		if err != nil {
			logging.Warn("backup cleanup failed", logging.Path(path), logging.Err(err))
			return nil
		}
		if len(deleted) > 0 {
			logging.Info("old backups removed", logging.Path(path), logging.Count(len(deleted)))
		}
		return nil
	}
}
