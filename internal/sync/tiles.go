package sync

import (
	"fmt"
	"sort"

	"github.com/klauern/tmxsync/internal/model"
)

// tileState is the classification of one tile id plus, for each document,
// the index of the variant it holds (-1 when it has no data).
type tileState struct {
	Situation
	holder []int
}

// TileIDUnion returns every tile id that has an entry in at least one
// document, ascending.
func TileIDUnion(docs []Document, tileset string) ([]int, error) {
	seen := map[int]struct{}{}
	for _, doc := range docs {
		ids, err := doc.TileIDs(tileset)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	union := make([]int, 0, len(seen))
	for id := range seen {
		union = append(union, id)
	}
	sort.Ints(union)
	return union, nil
}

// Classify reads tile id from every document and groups the documents by
// identical record.
func Classify(docs []Document, tileset string, id int) (Situation, error) {
	st, err := classify(docs, tileset, id)
	return st.Situation, err
}

func classify(docs []Document, tileset string, id int) (tileState, error) {
	st := tileState{
		Situation: Situation{Tileset: tileset, TileID: id},
		holder:    make([]int, len(docs)),
	}

	present := 0
	byKey := map[string]int{}
	for i, doc := range docs {
		rec, ok, err := doc.Tile(tileset, id)
		if err != nil {
			return st, err
		}
		if !ok {
			st.holder[i] = -1
			st.Missing = append(st.Missing, doc.Name())
			continue
		}
		present++
		key := rec.Key()
		idx, seen := byKey[key]
		if !seen {
			st.Variants = append(st.Variants, Variant{Record: rec})
			idx = len(st.Variants) - 1
			byKey[key] = idx
		}
		st.Variants[idx].Holders = append(st.Variants[idx].Holders, doc.Name())
		st.holder[i] = idx
	}

	conflict := len(st.Variants) > 1
	partial := present > 0 && present < len(docs)
	switch {
	case conflict && partial:
		st.Kind = KindConflictPartial
	case conflict:
		st.Kind = KindConflict
	case partial:
		st.Kind = KindPartial
	default:
		st.Kind = KindAgreement
	}
	return st, nil
}

// apply carries out an adopt or clear outcome and returns the names of the
// documents it wrote to. Skip and abort write nothing.
func apply(docs []Document, st tileState, out Outcome) ([]string, error) {
	var written []string
	switch out.Action {
	case ActionAdopt:
		for i, doc := range docs {
			if h := st.holder[i]; h >= 0 && st.Variants[h].Record.Equal(out.Record) {
				continue
			}
			if err := doc.SetTile(st.Tileset, st.TileID, out.Record); err != nil {
				return written, fmt.Errorf("failed to write tile %s/%d to %s: %w", st.Tileset, st.TileID, doc.Name(), err)
			}
			written = append(written, doc.Name())
		}
	case ActionClear:
		for i, doc := range docs {
			if err := doc.SetTile(st.Tileset, st.TileID, model.Empty()); err != nil {
				return written, fmt.Errorf("failed to clear tile %s/%d in %s: %w", st.Tileset, st.TileID, doc.Name(), err)
			}
			// documents without data were already default
			if st.holder[i] >= 0 {
				written = append(written, doc.Name())
			}
		}
	}
	return written, nil
}
