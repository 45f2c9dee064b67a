package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/klauern/tmxsync/internal/logging"
)

// Script is a TOML decision file for unattended runs:
//
//	default = "skip"
//	prefer  = ["world.tmx", "dungeon.tmx"]
//
//	[[decision]]
//	tileset = "terrain"
//	tile    = 7
//	action  = "adopt"
//	from    = "dungeon.tmx"
//
// A decision without a tile applies to the whole tileset. Exact tile
// decisions win over tileset-wide ones. Without a matching decision the
// record held by the first preferred document is adopted, and failing that
// the default action is used.
type Script struct {
	Default   string     `toml:"default"`
	Prefer    []string   `toml:"prefer"`
	Decisions []Decision `toml:"decision"`
}

// Decision is one scripted answer.
type Decision struct {
	Tileset string `toml:"tileset"`
	Tile    *int   `toml:"tile"`
	Action  string `toml:"action"`
	// From adopts the record held by this document (path or base name).
	From string `toml:"from"`
	// Variant adopts the n-th distinct record, counting from 1.
	Variant int `toml:"variant"`
}

// ScriptedResolver answers situations from a Script without prompting.
type ScriptedResolver struct {
	script   Script
	fallback Action
}

// LoadScript reads and validates a TOML decision file.
func LoadScript(path string) (*ScriptedResolver, error) {
	// #nosec G304 - path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	r, err := ParseScript(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ParseScript parses and validates a TOML decision script.
func ParseScript(data string) (*ScriptedResolver, error) {
	var s Script
	if _, err := toml.Decode(data, &s); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return NewScriptedResolver(s)
}

// NewScriptedResolver validates s and returns a resolver for it.
func NewScriptedResolver(s Script) (*ScriptedResolver, error) {
	fallback := ActionSkip
	if s.Default != "" {
		a, err := ParseAction(s.Default)
		if err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
		if a == ActionAdopt {
			return nil, fmt.Errorf("default: adopt needs a document; use prefer instead")
		}
		fallback = a
	}

	for i, d := range s.Decisions {
		if d.Tileset == "" {
			return nil, fmt.Errorf("decision %d: tileset is required", i+1)
		}
		a, err := ParseAction(d.Action)
		if err != nil {
			return nil, fmt.Errorf("decision %d: %w", i+1, err)
		}
		if a == ActionAdopt && d.From == "" && d.Variant <= 0 {
			return nil, fmt.Errorf("decision %d: adopt needs from or variant", i+1)
		}
	}

	return &ScriptedResolver{script: s, fallback: fallback}, nil
}

// Resolve implements Resolver.
func (r *ScriptedResolver) Resolve(_ context.Context, s Situation) (Outcome, error) {
	if d, ok := r.match(s); ok {
		a, _ := ParseAction(d.Action)
		if a != ActionAdopt {
			return Outcome{Action: a}, nil
		}
		if v, ok := pickVariant(s, d); ok {
			return Adopt(v.Record), nil
		}
		logging.Warn("scripted decision does not match any record; skipping",
			logging.Tileset(s.Tileset),
			logging.TileID(s.TileID),
		)
		return Skip(), nil
	}

	for _, doc := range r.script.Prefer {
		if v, ok := variantHeldBy(s, doc); ok {
			return Adopt(v.Record), nil
		}
	}
	return Outcome{Action: r.fallback}, nil
}

func (r *ScriptedResolver) match(s Situation) (Decision, bool) {
	var tilesetWide *Decision
	for i, d := range r.script.Decisions {
		if d.Tileset != s.Tileset {
			continue
		}
		if d.Tile == nil {
			if tilesetWide == nil {
				tilesetWide = &r.script.Decisions[i]
			}
			continue
		}
		if *d.Tile == s.TileID {
			return d, true
		}
	}
	if tilesetWide != nil {
		return *tilesetWide, true
	}
	return Decision{}, false
}

func pickVariant(s Situation, d Decision) (Variant, bool) {
	if d.From != "" {
		return variantHeldBy(s, d.From)
	}
	if d.Variant >= 1 && d.Variant <= len(s.Variants) {
		return s.Variants[d.Variant-1], true
	}
	return Variant{}, false
}

func variantHeldBy(s Situation, doc string) (Variant, bool) {
	for _, v := range s.Variants {
		if slices.ContainsFunc(v.Holders, func(h string) bool { return sameDocument(h, doc) }) {
			return v, true
		}
	}
	return Variant{}, false
}

// sameDocument matches a document name against a path or base name.
func sameDocument(name, ref string) bool {
	if name == ref {
		return true
	}
	return filepath.Base(name) == ref || filepath.Clean(name) == filepath.Clean(ref)
}
