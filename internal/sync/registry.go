package sync

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/klauern/tmxsync/internal/logging"
	"github.com/klauern/tmxsync/internal/model"
)

// Registry is the set of tileset identities declared across all documents.
type Registry struct {
	identities []model.Tileset
	byName     map[string][]model.Tileset
	names      []string
}

// CollectTilesets gathers the distinct tileset identities of docs in the
// order they are first seen.
//
// Tilesets are matched across documents by name only. A name declared with a
// different tile size or image is still synchronized as one tileset; see
// GeometryMismatch.
func CollectTilesets(docs []Document) (*Registry, error) {
	r := &Registry{byName: map[string][]model.Tileset{}}

	for _, doc := range docs {
		tilesets, err := doc.Tilesets()
		if err != nil {
			return nil, fmt.Errorf("failed to list tilesets of %s: %w", doc.Name(), err)
		}
		for _, ts := range tilesets {
			r.add(ts)
		}
	}

	logging.Debug("collected tilesets",
		logging.Count(len(r.names)),
		slog.Int("identities", len(r.identities)),
	)
	return r, nil
}

func (r *Registry) add(ts model.Tileset) {
	if slices.ContainsFunc(r.identities, ts.Equal) {
		return
	}
	known, seen := r.byName[ts.Name]
	if !seen {
		r.names = append(r.names, ts.Name)
	}
	r.identities = append(r.identities, ts)
	r.byName[ts.Name] = append(known, ts)
}

// Names returns the distinct tileset names in first-seen order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Lookup returns the identities declared under name.
func (r *Registry) Lookup(name string) []model.Tileset {
	return slices.Clone(r.byName[name])
}

// Len returns the number of distinct tileset names.
func (r *Registry) Len() int {
	return len(r.names)
}

// GeometryMismatch records a tileset name declared with more than one tile
// size or image.
type GeometryMismatch struct {
	Tileset    string
	Identities []model.Tileset
}

// String lists the differing declarations.
func (m GeometryMismatch) String() string {
	parts := make([]string, 0, len(m.Identities))
	for _, ts := range m.Identities {
		parts = append(parts, ts.String())
	}
	return strings.Join(parts, "; ")
}

// GeometryMismatch reports whether the identities declared under name
// disagree on geometry.
func (r *Registry) GeometryMismatch(name string) (GeometryMismatch, bool) {
	ids := r.Lookup(name)
	for _, ts := range ids[min(1, len(ids)):] {
		if !ts.SameGeometry(ids[0]) {
			return GeometryMismatch{Tileset: name, Identities: ids}, true
		}
	}
	return GeometryMismatch{}, false
}
