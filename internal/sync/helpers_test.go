package sync

import (
	"context"
	"sort"
	"testing"

	"github.com/klauern/tmxsync/internal/model"
	"github.com/klauern/tmxsync/internal/tmx"
)

// memDoc is an in-memory Document used to drive the synchronizer in tests.
type memDoc struct {
	name     string
	tilesets []model.Tileset
	terrains map[string][]string
	tiles    map[string]map[int]model.Record
	dirty    bool
	saves    int
	writes   int
}

func newMemDoc(name string, tilesets ...string) *memDoc {
	d := &memDoc{
		name:     name,
		terrains: map[string][]string{},
		tiles:    map[string]map[int]model.Record{},
	}
	for _, ts := range tilesets {
		d.tilesets = append(d.tilesets, model.Tileset{Name: ts, TileWidth: 32, TileHeight: 32, FirstGID: 1})
		d.tiles[ts] = map[int]model.Record{}
	}
	return d
}

func (d *memDoc) with(tileset string, id int, rec model.Record) *memDoc {
	d.tiles[tileset][id] = rec
	return d
}

func (d *memDoc) withTerrains(tileset string, names ...string) *memDoc {
	d.terrains[tileset] = names
	return d
}

func (d *memDoc) Name() string { return d.name }

func (d *memDoc) Tilesets() ([]model.Tileset, error) { return d.tilesets, nil }

func (d *memDoc) lookup(tileset string) (map[int]model.Record, error) {
	tiles, ok := d.tiles[tileset]
	if !ok {
		return nil, &tmx.TilesetNotFoundError{Tileset: tileset, Path: d.name}
	}
	return tiles, nil
}

func (d *memDoc) TileIDs(tileset string) ([]int, error) {
	tiles, err := d.lookup(tileset)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(tiles))
	for id := range tiles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (d *memDoc) Tile(tileset string, id int) (model.Record, bool, error) {
	tiles, err := d.lookup(tileset)
	if err != nil {
		return model.Record{}, false, err
	}
	rec, ok := tiles[id]
	if !ok || rec.IsDefault() {
		return model.Record{}, false, nil
	}
	return rec.Normalize(), true, nil
}

func (d *memDoc) SetTile(tileset string, id int, rec model.Record) error {
	tiles, err := d.lookup(tileset)
	if err != nil {
		return err
	}
	rec = rec.Normalize()
	old, had := tiles[id]
	if rec.IsDefault() {
		if had {
			delete(tiles, id)
			if !old.IsDefault() {
				d.dirty = true
				d.writes++
			}
		}
		return nil
	}
	if had && old.Normalize().Equal(rec) {
		return nil
	}
	tiles[id] = rec.Clone()
	d.dirty = true
	d.writes++
	return nil
}

func (d *memDoc) Terrains(tileset string) ([]string, error) {
	if _, err := d.lookup(tileset); err != nil {
		return nil, err
	}
	return append([]string{}, d.terrains[tileset]...), nil
}

func (d *memDoc) SetTerrains(tileset string, names []string) error {
	if _, err := d.lookup(tileset); err != nil {
		return err
	}
	d.terrains[tileset] = append([]string{}, names...)
	d.dirty = true
	d.writes++
	return nil
}

func (d *memDoc) Dirty() bool { return d.dirty }

func (d *memDoc) Save() error {
	if d.dirty {
		d.saves++
		d.dirty = false
	}
	return nil
}

func docs(ds ...*memDoc) []Document {
	out := make([]Document, len(ds))
	for i, d := range ds {
		out[i] = d
	}
	return out
}

func terrain(v string) model.Record {
	return model.Record{Terrain: model.Some(v)}
}

func probability(v string) model.Record {
	return model.Record{Probability: model.Some(v)}
}

// recordingResolver records every situation and answers with decide.
type recordingResolver struct {
	seen   []Situation
	decide func(Situation) Outcome
}

func (r *recordingResolver) Resolve(_ context.Context, s Situation) (Outcome, error) {
	r.seen = append(r.seen, s)
	if r.decide == nil {
		return Skip(), nil
	}
	return r.decide(s), nil
}

// adoptFirst adopts the first variant of every situation.
func adoptFirst(s Situation) Outcome {
	return Adopt(s.Variants[0].Record)
}

// failingResolver fails the test if it is ever consulted.
func failingResolver(t *testing.T) Resolver {
	t.Helper()
	return ResolverFunc(func(_ context.Context, s Situation) (Outcome, error) {
		t.Errorf("resolver should not be called, got %s", s.Describe())
		return Skip(), nil
	})
}
