package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/tmxsync/internal/export"
	"github.com/klauern/tmxsync/internal/sync"
	"github.com/klauern/tmxsync/internal/ui"
)

// errNotConverged is returned by check when the maps disagree.
var errNotConverged = errors.New("maps are not in sync")

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Report tiles that differ between maps without changing anything",
		UsageText: "tmxsync check <map.tmx> <map.tmx> [map.tmx...]",
		Description: `Classify every tile of every shared tileset and list the ones that
   disagree. Nothing is prompted and nothing is written. The command fails
   when the maps are not in sync, which makes it usable in CI.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format: text, json, yaml, markdown",
				Value:   "text",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) < 2 {
				return fmt.Errorf("%w, got %d (usage: %s)", errTooFewMaps, len(paths), cmd.UsageText)
			}

			var format export.Format
			if f := cmd.String("format"); f != "text" {
				parsed, err := export.ParseFormat(f)
				if err != nil {
					return err
				}
				format = parsed
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			docs, err := openMaps(paths, cfg, false)
			if err != nil {
				return err
			}

			result, err := sync.Check(ctx, docs)
			if err != nil {
				return err
			}

			if format != "" {
				if err := export.New(export.Options{Format: format, Pretty: true}).Export(result, os.Stdout); err != nil {
					return err
				}
				if !result.Converged() {
					return errNotConverged
				}
				return nil
			}

			if result.Converged() {
				fmt.Println(ui.StatusSuccess(fmt.Sprintf("%d map(s) agree on %d tileset(s)", result.Documents, len(result.Tilesets))))
				return nil
			}

			fmt.Println(ui.Header("Tiles that differ:"))
			for _, tr := range result.Tiles {
				fmt.Printf("  %s/%d  %s  (%d variant(s), missing in %d map(s))\n",
					tr.Tileset, tr.TileID, ui.KindLabel(tr.Kind), tr.Variants, tr.Missing)
			}
			for _, tu := range result.TerrainUpdates {
				fmt.Printf("  %s  %s\n", tu.Tileset, ui.Warning(fmt.Sprintf("terrain list incomplete in %d map(s)", len(tu.Documents))))
			}
			fmt.Println(ui.StatusError(fmt.Sprintf("%d tile(s) and %d terrain list(s) out of sync",
				len(result.Tiles), len(result.TerrainUpdates))))
			return errNotConverged
		},
	}
}
