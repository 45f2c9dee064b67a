package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/klauern/tmxsync/internal/backup"
	"github.com/klauern/tmxsync/internal/logging"
	"github.com/klauern/tmxsync/internal/ui"
	"github.com/klauern/tmxsync/internal/ui/tui"
)

func backupsCommand() *cli.Command {
	return &cli.Command{
		Name:  "backups",
		Usage: "List and manage the backups taken before maps are written",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Usage: "Only show backups of this map file",
			},
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Browse backups in an interactive table",
			},
		},
		Action: backupsListAction,
		Commands: []*cli.Command{
			{
				Name:      "restore",
				Usage:     "Write a backup back over its map (or to --to)",
				ArgsUsage: "<backup-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "to",
						Usage: "Restore to this path instead of the original map",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					id, err := backupIDArg(cmd)
					if err != nil {
						return err
					}
					store, err := openBackupStore(cmd)
					if err != nil {
						return err
					}
					return restoreBackup(store, id, cmd.String("to"))
				},
			},
			{
				Name:      "verify",
				Usage:     "Check a backup against its recorded hash",
				ArgsUsage: "<backup-id>",
				Action: func(_ context.Context, cmd *cli.Command) error {
					id, err := backupIDArg(cmd)
					if err != nil {
						return err
					}
					store, err := openBackupStore(cmd)
					if err != nil {
						return err
					}
					return verifyBackup(store, id)
				},
			},
			{
				Name:      "delete",
				Usage:     "Remove a backup",
				ArgsUsage: "<backup-id>",
				Action: func(_ context.Context, cmd *cli.Command) error {
					id, err := backupIDArg(cmd)
					if err != nil {
						return err
					}
					store, err := openBackupStore(cmd)
					if err != nil {
						return err
					}
					return deleteBackup(store, id)
				},
			},
			{
				Name:  "prune",
				Usage: "Remove old backups, keeping the newest per map",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "keep",
						Usage: "Backups to keep per map (defaults to backup.max_backups)",
					},
					&cli.DurationFlag{
						Name:  "max-age",
						Usage: "Also remove backups older than this, e.g. 720h",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Show what would be removed",
					},
				},
				Action: backupsPruneAction,
			},
		},
	}
}

func openBackupStore(cmd *cli.Command) (*backup.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return backup.NewStore(cfg.BackupLocation()), nil
}

func backupIDArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", errors.New("exactly one backup id is required")
	}
	return cmd.Args().First(), nil
}

func backupsListAction(_ context.Context, cmd *cli.Command) error {
	store, err := openBackupStore(cmd)
	if err != nil {
		return err
	}

	backups, err := store.List(cmd.String("source"))
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Println("No backups found")
		return nil
	}

	if cmd.Bool("interactive") {
		return browseBackups(store, backups)
	}

	fmt.Println(ui.Header(fmt.Sprintf("Backups in %s", store.Dir())))
	for _, b := range backups {
		fmt.Printf("  %s  %-20s %8s  %s\n",
			ui.Bold(b.ID),
			filepath.Base(b.SourcePath),
			humanize.Bytes(uint64(max(b.Size, 0))),
			ui.Dim(humanize.Time(b.CreatedAt)))
		fmt.Printf("      %s\n", ui.Dim(b.SourcePath))
	}
	fmt.Printf("%d backup(s)\n", len(backups))
	return nil
}

func browseBackups(store *backup.Store, backups []backup.Metadata) error {
	res, err := tui.RunBackupList(backups)
	if err != nil {
		return err
	}
	switch res.Action {
	case tui.BackupRestore:
		return restoreBackup(store, res.Backup.ID, "")
	case tui.BackupDelete:
		return deleteBackup(store, res.Backup.ID)
	case tui.BackupVerify:
		return verifyBackup(store, res.Backup.ID)
	default:
		return nil
	}
}

func restoreBackup(store *backup.Store, id, target string) error {
	path, err := store.Restore(id, target)
	if err != nil {
		return err
	}
	logging.Info("backup restored", logging.Path(path), logging.Operation("restore"))
	fmt.Println(ui.StatusSuccess(fmt.Sprintf("Restored %s to %s", id, path)))
	return nil
}

func verifyBackup(store *backup.Store, id string) error {
	if err := store.Verify(id); err != nil {
		fmt.Println(ui.StatusError(fmt.Sprintf("Backup %s failed verification", id)))
		return err
	}
	fmt.Println(ui.StatusSuccess(fmt.Sprintf("Backup %s is intact", id)))
	return nil
}

func deleteBackup(store *backup.Store, id string) error {
	if err := store.Delete(id); err != nil {
		return err
	}
	fmt.Println(ui.StatusSuccess(fmt.Sprintf("Deleted backup %s", id)))
	return nil
}

func backupsPruneAction(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store := backup.NewStore(cfg.BackupLocation())

	keep := cfg.Backup.MaxBackups
	if cmd.IsSet("keep") {
		keep = int(cmd.Int("keep"))
	}

	dryRun := cmd.Bool("dry-run")
	deleted, err := store.Prune(backup.CleanupOptions{
		MaxBackups:     keep,
		MaxAge:         cmd.Duration("max-age"),
		KeepAtLeastOne: true,
		DryRun:         dryRun,
	})
	if err != nil {
		return err
	}

	verb := "Removed"
	if dryRun {
		verb = "Would remove"
	}
	for _, id := range deleted {
		fmt.Printf("  - %s\n", id)
	}
	fmt.Println(ui.StatusSuccess(fmt.Sprintf("%s %d backup(s)", verb, len(deleted))))
	return nil
}
