package sync

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/klauern/tmxsync/internal/logging"
)

// MergeTerrains builds the terrain list of tileset shared by all documents.
//
// Lists are aligned by index: the first document naming a terrain at index i
// defines it, and every other document must either agree at i or end before
// it. All disagreements are collected into a *TerrainConflictError.
func MergeTerrains(docs []Document, tileset string) ([]string, error) {
	merged := []string{}
	var conflicts []TerrainConflict

	for _, doc := range docs {
		names, err := doc.Terrains(tileset)
		if err != nil {
			return nil, err
		}
		for i, name := range names {
			if i == len(merged) {
				merged = append(merged, name)
				continue
			}
			if merged[i] != name {
				c := TerrainConflict{Index: i, Expected: merged[i], Got: name, Document: doc.Name()}
				logging.Error("terrain conflict",
					logging.Tileset(tileset),
					logging.Path(doc.Name()),
					slog.Int("index", i),
					slog.String("expected", c.Expected),
					slog.String("got", c.Got),
				)
				conflicts = append(conflicts, c)
			}
		}
	}

	if len(conflicts) > 0 {
		return nil, &TerrainConflictError{Tileset: tileset, Conflicts: conflicts}
	}
	return merged, nil
}

// SyncTerrains merges the terrain lists of tileset and writes the merged list
// into every document whose list differs. It returns the names of the
// documents that were updated.
func SyncTerrains(docs []Document, tileset string) ([]string, error) {
	merged, err := MergeTerrains(docs, tileset)
	if err != nil {
		return nil, err
	}

	var updated []string
	for _, doc := range docs {
		current, err := doc.Terrains(tileset)
		if err != nil {
			return updated, err
		}
		if slices.Equal(current, merged) {
			continue
		}
		if err := doc.SetTerrains(tileset, merged); err != nil {
			return updated, fmt.Errorf("failed to write terrains of %s: %w", doc.Name(), err)
		}
		logging.Info("terrains updated",
			logging.Tileset(tileset),
			logging.Path(doc.Name()),
			slog.String("terrains", strings.Join(merged, ",")),
		)
		updated = append(updated, doc.Name())
	}
	return updated, nil
}
