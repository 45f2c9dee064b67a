package sync

import "github.com/klauern/tmxsync/internal/model"

// Document is the per-file storage the synchronizer reads from and writes to.
// *tmx.Document implements it.
type Document interface {
	// Name identifies the document in prompts and reports.
	Name() string

	// Tilesets lists the tilesets declared by the document.
	Tilesets() ([]model.Tileset, error)

	// TileIDs lists the tile ids with an entry in the named tileset.
	TileIDs(tileset string) ([]int, error)

	// Tile reads the record for id; false means the document has no data for it.
	Tile(tileset string, id int) (model.Record, bool, error)

	// SetTile replaces the stored record for id.
	SetTile(tileset string, id int, rec model.Record) error

	// Terrains returns the ordered terrain names of the tileset.
	Terrains(tileset string) ([]string, error)

	// SetTerrains replaces the ordered terrain names of the tileset.
	SetTerrains(tileset string, names []string) error

	// Dirty reports whether the document has unsaved changes.
	Dirty() bool

	// Save writes the document if it is dirty.
	Save() error
}
