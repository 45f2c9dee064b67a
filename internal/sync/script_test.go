package sync

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauern/tmxsync/internal/model"
)

func TestParseScript_Validation(t *testing.T) {
	tests := map[string]struct {
		script  string
		wantErr string
	}{
		"empty script": {
			script: "",
		},
		"quit default": {
			script: `default = "quit"`,
		},
		"unknown default": {
			script:  `default = "merge"`,
			wantErr: "default",
		},
		"adopt default": {
			script:  `default = "adopt"`,
			wantErr: "use prefer",
		},
		"missing tileset": {
			script: `
[[decision]]
action = "skip"
`,
			wantErr: "tileset is required",
		},
		"adopt without source": {
			script: `
[[decision]]
tileset = "terrain"
action = "adopt"
`,
			wantErr: "adopt needs from or variant",
		},
		"bad action": {
			script: `
[[decision]]
tileset = "terrain"
action = "paint"
`,
			wantErr: "decision 1",
		},
		"invalid toml": {
			script:  `default = `,
			wantErr: "invalid script",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScript(tt.script)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ParseScript() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ParseScript() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseScript() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func situation(tileset string, id int) Situation {
	return Situation{
		Tileset: tileset,
		TileID:  id,
		Kind:    KindConflictPartial,
		Variants: []Variant{
			{Record: terrain("grass"), Holders: []string{"maps/world.tmx"}},
			{Record: terrain("water"), Holders: []string{"maps/dungeon.tmx", "maps/cave.tmx"}},
		},
		Missing: []string{"maps/town.tmx"},
	}
}

func TestScriptedResolver_Resolve(t *testing.T) {
	script := `
default = "skip"
prefer = ["cave.tmx"]

[[decision]]
tileset = "terrain"
action = "clear"

[[decision]]
tileset = "terrain"
tile = 7
action = "adopt"
from = "world.tmx"

[[decision]]
tileset = "props"
tile = 1
action = "adopt"
variant = 2

[[decision]]
tileset = "props"
tile = 2
action = "adopt"
variant = 5

[[decision]]
tileset = "props"
tile = 3
action = "quit"
`
	r, err := ParseScript(script)
	if err != nil {
		t.Fatalf("ParseScript() error = %v", err)
	}

	tests := map[string]struct {
		s          Situation
		wantAction Action
		wantRecord model.Record
	}{
		"exact tile wins over tileset-wide": {
			s:          situation("terrain", 7),
			wantAction: ActionAdopt,
			wantRecord: terrain("grass"),
		},
		"tileset-wide decision": {
			s:          situation("terrain", 8),
			wantAction: ActionClear,
		},
		"variant by position": {
			s:          situation("props", 1),
			wantAction: ActionAdopt,
			wantRecord: terrain("water"),
		},
		"variant out of range skips": {
			s:          situation("props", 2),
			wantAction: ActionSkip,
		},
		"quit decision": {
			s:          situation("props", 3),
			wantAction: ActionAbort,
		},
		"preferred document": {
			s:          situation("walls", 1),
			wantAction: ActionAdopt,
			wantRecord: terrain("water"),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := r.Resolve(context.Background(), tt.s)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if out.Action != tt.wantAction {
				t.Errorf("Action = %s, want %s", out.Action, tt.wantAction)
			}
			if tt.wantAction == ActionAdopt && !out.Record.Equal(tt.wantRecord) {
				t.Errorf("Record = %s, want %s", out.Record, tt.wantRecord)
			}
		})
	}
}

func TestScriptedResolver_Fallback(t *testing.T) {
	r, err := ParseScript(`
default = "clear"
prefer = ["elsewhere.tmx"]
`)
	if err != nil {
		t.Fatalf("ParseScript() error = %v", err)
	}
	out, err := r.Resolve(context.Background(), situation("terrain", 1))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if out.Action != ActionClear {
		t.Errorf("Action = %s, want clear", out.Action)
	}
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "decisions.toml")
	if err := os.WriteFile(path, []byte("default = \"skip\"\n"), 0o600); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	if _, err := LoadScript(path); err != nil {
		t.Errorf("LoadScript() error = %v", err)
	}
	if _, err := LoadScript(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("LoadScript() of a missing file should fail")
	}
}

func TestScriptedResolver_DrivesRun(t *testing.T) {
	a := newMemDoc("a.tmx", "T").with("T", 1, terrain("x"))
	b := newMemDoc("b.tmx", "T").with("T", 1, terrain("y"))

	r, err := ParseScript(`prefer = ["b.tmx"]`)
	if err != nil {
		t.Fatalf("ParseScript() error = %v", err)
	}
	if _, err := New(docs(a, b), Options{Resolver: r}).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, ok, _ := a.Tile("T", 1)
	if !ok || !got.Equal(terrain("y")) {
		t.Errorf("a.tmx tile 1 = %s, want terrain y", got)
	}
}
