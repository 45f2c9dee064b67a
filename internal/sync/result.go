package sync

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TileResult records what happened to one tile id that was not in agreement.
type TileResult struct {
	Tileset string
	TileID  int
	Kind    Kind
	Action  Action

	// Written names the documents whose record was replaced.
	Written []string

	// Variants is the number of distinct records seen.
	Variants int

	// Missing is the number of documents without data for the tile.
	Missing int
}

// TerrainUpdate records which documents received a merged terrain list.
type TerrainUpdate struct {
	Tileset   string
	Documents []string
}

// Result contains the complete outcome of a synchronization run.
type Result struct {
	// Documents is the number of documents synchronized.
	Documents int

	// Tilesets lists the tilesets that were processed, in order.
	Tilesets []string

	// Tiles lists every tile id that needed a decision.
	Tiles []TileResult

	// Agreed counts the tile ids that were already in agreement.
	Agreed int

	// TerrainUpdates lists the terrain lists that were rewritten.
	TerrainUpdates []TerrainUpdate

	// GeometryMismatches lists tileset names declared with different tile
	// sizes or images. They are still synchronized by name.
	GeometryMismatches []GeometryMismatch

	// Saved lists the documents written to disk.
	Saved []string

	// Unsaved lists the documents with changes that were not written (dry run).
	Unsaved []string

	// Aborted is true when the operator stopped the run early.
	Aborted bool

	// DryRun indicates that nothing was written.
	DryRun bool
}

// ByAction returns the tile results with the given action.
func (r *Result) ByAction(action Action) []TileResult {
	var filtered []TileResult
	for _, tr := range r.Tiles {
		if tr.Action == action {
			filtered = append(filtered, tr)
		}
	}
	return filtered
}

// Unresolved returns the tile results that were skipped or interrupted.
func (r *Result) Unresolved() []TileResult {
	return append(r.ByAction(ActionSkip), r.ByAction(ActionAbort)...)
}

// Converged reports whether every tile and terrain list already agreed.
func (r *Result) Converged() bool {
	return len(r.Tiles) == 0 && len(r.TerrainUpdates) == 0
}

// TotalChanged returns the number of documents that were (or would be) written.
func (r *Result) TotalChanged() int {
	return len(r.Saved) + len(r.Unsaved)
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	var sb strings.Builder
	title := cases.Title(language.English)

	if r.DryRun {
		sb.WriteString("Dry run - no files written\n")
	}
	if r.Aborted {
		sb.WriteString("Stopped early at operator request\n")
	}

	sb.WriteString(fmt.Sprintf("Synchronized %d tileset(s) across %d map(s)\n", len(r.Tilesets), r.Documents))
	sb.WriteString(fmt.Sprintf("  %-9s %d\n", "Agreed:", r.Agreed))
	for _, a := range []Action{ActionAdopt, ActionClear, ActionSkip} {
		sb.WriteString(fmt.Sprintf("  %-9s %d\n", title.String(a.String())+":", len(r.ByAction(a))))
	}
	sb.WriteString(fmt.Sprintf("  %-9s %d\n", "Terrains:", len(r.TerrainUpdates)))

	if len(r.GeometryMismatches) > 0 {
		sb.WriteString("\nGeometry differs (synchronized by name):\n")
		for _, m := range r.GeometryMismatches {
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", m.Tileset, m))
		}
	}

	if unresolved := r.Unresolved(); len(unresolved) > 0 {
		sb.WriteString("\nUnresolved tiles:\n")
		for _, tr := range unresolved {
			sb.WriteString(fmt.Sprintf("  - %s/%d: %s\n", tr.Tileset, tr.TileID, tr.Kind))
		}
	}

	if len(r.Saved) > 0 {
		sb.WriteString("\nSaved:\n")
		for _, name := range r.Saved {
			sb.WriteString(fmt.Sprintf("  - %s\n", name))
		}
	}
	if len(r.Unsaved) > 0 {
		sb.WriteString("\nWould save:\n")
		for _, name := range r.Unsaved {
			sb.WriteString(fmt.Sprintf("  - %s\n", name))
		}
	}

	return sb.String()
}
