// Package sync converges the tileset metadata of several Tiled maps that
// embed the same tilesets.
//
// # Flow
//
// For each tileset name, in the order tilesets are first declared:
//
//  1. The terrain lists are merged by position (MergeTerrains). A
//     positional disagreement is fatal: terrains are referenced by index.
//  2. Every tile id with an entry in any document is classified
//     (Classify) as agreement, conflict, partial presence, or both.
//  3. Every non-agreement is handed to a Resolver, whose Outcome is then
//     applied to the documents: adopt a record, clear the tile, skip it,
//     or abort the run.
//
// When all tilesets are done, or the operator aborts, every dirty document
// is saved. Fatal errors return before the save pass.
//
// # Resolvers
//
// The cli package provides a line prompt and the tui package a picker.
// ScriptedResolver answers from a TOML file, and any function can be used
// through ResolverFunc:
//
//	s := sync.New(docs, sync.Options{
//	    Resolver: sync.ResolverFunc(func(_ context.Context, st sync.Situation) (sync.Outcome, error) {
//	        return sync.Adopt(st.Variants[0].Record), nil
//	    }),
//	})
//	result, err := s.Run(ctx)
//
// # Absent and default records
//
// A tile entry that only holds default values (no terrain, probability 1,
// no properties) is treated exactly like a missing entry, both when
// classifying and when writing. Clearing a tile therefore removes its entry.
package sync
