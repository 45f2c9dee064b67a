package sync

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTerrainConflict is returned when terrain lists disagree at the same position.
var ErrTerrainConflict = errors.New("terrain conflict")

// TerrainConflict is one positional mismatch between terrain lists.
type TerrainConflict struct {
	Index    int
	Expected string
	Got      string
	Document string
}

func (c TerrainConflict) String() string {
	return fmt.Sprintf("terrains at #%d conflict: %s vs. %s (%s)", c.Index, c.Expected, c.Got, c.Document)
}

// TerrainConflictError lists every terrain conflict found for a tileset.
// Terrains are referenced by position, so these are never resolved
// interactively.
type TerrainConflictError struct {
	Tileset   string
	Conflicts []TerrainConflict
}

func (e *TerrainConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, c.String())
	}
	return fmt.Sprintf("tileset %q: %s", e.Tileset, strings.Join(parts, "; "))
}

// Unwrap allows errors.Is(err, ErrTerrainConflict).
func (e *TerrainConflictError) Unwrap() error {
	return ErrTerrainConflict
}
