package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/klauern/tmxsync/internal/logging"
)

// Options configures a synchronization run.
type Options struct {
	// Resolver decides every conflict and partial presence. Defaults to SkipAll.
	Resolver Resolver

	// DryRun runs the full protocol but skips the save pass.
	DryRun bool

	// BeforeSave is called for every dirty document right before it is saved.
	// An error aborts the save pass.
	BeforeSave func(doc Document) error

	// Progress receives progress events. May be nil.
	Progress ProgressCallback
}

// ProgressEventType identifies a progress event.
type ProgressEventType string

const (
	// ProgressEventTilesetStart is emitted before the tiles of a tileset are processed.
	ProgressEventTilesetStart ProgressEventType = "tileset_start"

	// ProgressEventTile is emitted after each tile id is processed.
	ProgressEventTile ProgressEventType = "tile"

	// ProgressEventTilesetComplete is emitted when a tileset is finished.
	ProgressEventTilesetComplete ProgressEventType = "tileset_complete"
)

// ProgressEvent reports how far the run has progressed within a tileset.
type ProgressEvent struct {
	Type    ProgressEventType
	Tileset string
	TileID  int
	Current int
	Total   int
}

// ProgressCallback receives progress events.
type ProgressCallback func(ProgressEvent)

// Status tells the caller whether processing may continue.
type Status int

const (
	// StatusContinue means the tileset was fully processed.
	StatusContinue Status = iota
	// StatusAborted means the operator chose to stop and save.
	StatusAborted
)

// Synchronizer converges tile metadata across a fixed set of documents.
type Synchronizer struct {
	docs []Document
	opts Options
}

// New creates a Synchronizer over docs.
func New(docs []Document, opts Options) *Synchronizer {
	if opts.Resolver == nil {
		opts.Resolver = SkipAll
	}
	return &Synchronizer{docs: docs, opts: opts}
}

// Run synchronizes every tileset and then saves every changed document.
//
// Tilesets are processed in the order they are first declared. A terrain
// conflict, a missing tileset or an I/O failure stops the run before the
// save pass. An abort outcome stops processing but still saves.
func (s *Synchronizer) Run(ctx context.Context) (*Result, error) {
	defer logging.Timer("sync")()

	result := &Result{Documents: len(s.docs), DryRun: s.opts.DryRun}

	registry, err := CollectTilesets(s.docs)
	if err != nil {
		return result, err
	}

	for _, name := range registry.Names() {
		if m, ok := registry.GeometryMismatch(name); ok {
			logging.Warn("tileset declared with different geometry; treating as the same tileset",
				logging.Tileset(name),
				slog.String("declarations", m.String()),
			)
			result.GeometryMismatches = append(result.GeometryMismatches, m)
		}

		status, err := s.SyncTileset(ctx, name, result)
		if err != nil {
			return result, err
		}
		if status == StatusAborted {
			result.Aborted = true
			logging.Info("synchronization stopped by operator", logging.Tileset(name))
			break
		}
	}

	if err := s.save(result); err != nil {
		return result, err
	}
	return result, nil
}

// SyncTileset synchronizes the terrain list and then the tiles of one tileset.
func (s *Synchronizer) SyncTileset(ctx context.Context, tileset string, result *Result) (Status, error) {
	updated, err := SyncTerrains(s.docs, tileset)
	if err != nil {
		return StatusContinue, err
	}
	if len(updated) > 0 {
		result.TerrainUpdates = append(result.TerrainUpdates, TerrainUpdate{Tileset: tileset, Documents: updated})
	}
	result.Tilesets = append(result.Tilesets, tileset)
	return s.SyncTiles(ctx, tileset, result)
}

// SyncTiles classifies every tile id of tileset and applies the resolver's
// outcome for each one that is not in agreement.
func (s *Synchronizer) SyncTiles(ctx context.Context, tileset string, result *Result) (Status, error) {
	ids, err := TileIDUnion(s.docs, tileset)
	if err != nil {
		return StatusContinue, err
	}

	logging.Debug("synchronizing tiles", logging.Tileset(tileset), logging.Count(len(ids)))
	s.emit(ProgressEvent{Type: ProgressEventTilesetStart, Tileset: tileset, Total: len(ids)})

	for n, id := range ids {
		if err := ctx.Err(); err != nil {
			return StatusContinue, err
		}

		st, err := classify(s.docs, tileset, id)
		if err != nil {
			return StatusContinue, err
		}

		if st.Kind == KindAgreement {
			result.Agreed++
			s.emit(ProgressEvent{Type: ProgressEventTile, Tileset: tileset, TileID: id, Current: n + 1, Total: len(ids)})
			continue
		}

		logging.Info(st.Describe(),
			logging.Tileset(tileset),
			logging.TileID(id),
			slog.String("kind", string(st.Kind)),
		)

		out, err := s.opts.Resolver.Resolve(ctx, st.Situation)
		if err != nil {
			return StatusContinue, fmt.Errorf("failed to resolve tile %s/%d: %w", tileset, id, err)
		}

		written, err := apply(s.docs, st, out)
		if err != nil {
			return StatusContinue, err
		}

		logging.Info("tile resolved",
			logging.Tileset(tileset),
			logging.TileID(id),
			logging.Action(string(out.Action)),
			logging.Count(len(written)),
		)
		result.Tiles = append(result.Tiles, TileResult{
			Tileset:  tileset,
			TileID:   id,
			Kind:     st.Kind,
			Action:   out.Action,
			Written:  written,
			Variants: len(st.Variants),
			Missing:  len(st.Missing),
		})

		if out.Action == ActionAbort {
			return StatusAborted, nil
		}
		s.emit(ProgressEvent{Type: ProgressEventTile, Tileset: tileset, TileID: id, Current: n + 1, Total: len(ids)})
	}

	s.emit(ProgressEvent{Type: ProgressEventTilesetComplete, Tileset: tileset, Current: len(ids), Total: len(ids)})
	return StatusContinue, nil
}

// save writes every dirty document, or only records them on a dry run.
func (s *Synchronizer) save(result *Result) error {
	for _, doc := range s.docs {
		if !doc.Dirty() {
			continue
		}
		if s.opts.DryRun {
			result.Unsaved = append(result.Unsaved, doc.Name())
			continue
		}
		if s.opts.BeforeSave != nil {
			if err := s.opts.BeforeSave(doc); err != nil {
				return fmt.Errorf("failed to prepare %s for saving: %w", doc.Name(), err)
			}
		}
		if err := doc.Save(); err != nil {
			return err
		}
		result.Saved = append(result.Saved, doc.Name())
	}
	return nil
}

func (s *Synchronizer) emit(event ProgressEvent) {
	if s.opts.Progress != nil {
		s.opts.Progress(event)
	}
}

// Check classifies every tileset of docs without prompting and without
// writing to disk. Terrain lists are merged in memory only.
func Check(ctx context.Context, docs []Document) (*Result, error) {
	return New(docs, Options{Resolver: SkipAll, DryRun: true}).Run(ctx)
}
