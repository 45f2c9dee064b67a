// Package export renders synchronization results in machine-readable form.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klauern/tmxsync/internal/logging"
	"github.com/klauern/tmxsync/internal/sync"
)

// Format represents the output format for an exported result.
type Format string

const (
	// FormatJSON exports the result as JSON.
	FormatJSON Format = "json"
	// FormatYAML exports the result as YAML.
	FormatYAML Format = "yaml"
	// FormatMarkdown exports the result as a Markdown report.
	FormatMarkdown Format = "markdown"
)

// IsValid returns true if the format is recognized.
func (f Format) IsValid() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatMarkdown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// AllFormats returns all supported export formats.
func AllFormats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatMarkdown}
}

// ParseFormat parses a string into a Format.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))
	if !format.IsValid() {
		return "", fmt.Errorf("unsupported format %q (valid: json, yaml, markdown)", s)
	}
	return format, nil
}

// Options configures export behavior.
type Options struct {
	// Format specifies the output format.
	Format Format
	// Pretty enables indentation for JSON and YAML.
	Pretty bool
}

// DefaultOptions returns the default export options.
func DefaultOptions() Options {
	return Options{
		Format: FormatJSON,
		Pretty: true,
	}
}

// Exporter writes results in the configured format.
type Exporter struct {
	opts Options
}

// New creates a new Exporter with the given options.
func New(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Export writes result to w in the configured format.
func (e *Exporter) Export(result *sync.Result, w io.Writer) error {
	defer logging.Timer("export")()

	logging.Debug("starting export",
		slog.String("format", string(e.opts.Format)),
		logging.Count(len(result.Tiles)),
		logging.Operation("export"),
	)

	rep := newReport(result)

	var err error
	switch e.opts.Format {
	case FormatJSON:
		err = e.exportJSON(rep, w)
	case FormatYAML:
		err = e.exportYAML(rep, w)
	case FormatMarkdown:
		err = exportMarkdown(rep, w)
	default:
		err = fmt.Errorf("unsupported format: %s", e.opts.Format)
	}

	if err != nil {
		logging.Error("export failed",
			slog.String("format", string(e.opts.Format)),
			logging.Err(err),
		)
		return err
	}
	return nil
}

// report is the exported shape of a sync.Result.
type report struct {
	Documents      int            `json:"documents" yaml:"documents"`
	Tilesets       []string       `json:"tilesets" yaml:"tilesets"`
	Converged      bool           `json:"converged" yaml:"converged"`
	Agreed         int            `json:"agreed" yaml:"agreed"`
	Tiles          []tileEntry    `json:"tiles" yaml:"tiles"`
	TerrainUpdates []terrainEntry `json:"terrain_updates,omitempty" yaml:"terrain_updates,omitempty"`
	Saved          []string       `json:"saved,omitempty" yaml:"saved,omitempty"`
	Unsaved        []string       `json:"unsaved,omitempty" yaml:"unsaved,omitempty"`
	Aborted        bool           `json:"aborted,omitempty" yaml:"aborted,omitempty"`
	DryRun         bool           `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

type tileEntry struct {
	Tileset  string   `json:"tileset" yaml:"tileset"`
	TileID   int      `json:"tile_id" yaml:"tile_id"`
	Kind     string   `json:"kind" yaml:"kind"`
	Action   string   `json:"action,omitempty" yaml:"action,omitempty"`
	Variants int      `json:"variants" yaml:"variants"`
	Missing  int      `json:"missing" yaml:"missing"`
	Written  []string `json:"written,omitempty" yaml:"written,omitempty"`
}

type terrainEntry struct {
	Tileset   string   `json:"tileset" yaml:"tileset"`
	Documents []string `json:"documents" yaml:"documents"`
}

func newReport(r *sync.Result) report {
	rep := report{
		Documents: r.Documents,
		Tilesets:  r.Tilesets,
		Converged: r.Converged(),
		Agreed:    r.Agreed,
		Tiles:     make([]tileEntry, 0, len(r.Tiles)),
		Saved:     r.Saved,
		Unsaved:   r.Unsaved,
		Aborted:   r.Aborted,
		DryRun:    r.DryRun,
	}
	if rep.Tilesets == nil {
		rep.Tilesets = []string{}
	}
	for _, tr := range r.Tiles {
		rep.Tiles = append(rep.Tiles, tileEntry{
			Tileset:  tr.Tileset,
			TileID:   tr.TileID,
			Kind:     string(tr.Kind),
			Action:   string(tr.Action),
			Variants: tr.Variants,
			Missing:  tr.Missing,
			Written:  tr.Written,
		})
	}
	for _, tu := range r.TerrainUpdates {
		rep.TerrainUpdates = append(rep.TerrainUpdates, terrainEntry{Tileset: tu.Tileset, Documents: tu.Documents})
	}
	return rep
}

func (e *Exporter) exportJSON(rep report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if e.opts.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(rep)
}

func (e *Exporter) exportYAML(rep report, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	if e.opts.Pretty {
		encoder.SetIndent(2)
	}
	if err := encoder.Encode(rep); err != nil {
		_ = encoder.Close()
		return err
	}
	return encoder.Close()
}

func exportMarkdown(rep report, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString("# Tile Sync Report\n\n")
	sb.WriteString("| Property | Value |\n")
	sb.WriteString("|----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Maps | %d |\n", rep.Documents))
	sb.WriteString(fmt.Sprintf("| Tilesets | %s |\n", strings.Join(rep.Tilesets, ", ")))
	sb.WriteString(fmt.Sprintf("| Agreed tiles | %d |\n", rep.Agreed))
	sb.WriteString(fmt.Sprintf("| In sync | %t |\n", rep.Converged))
	if rep.DryRun {
		sb.WriteString("| Dry run | true |\n")
	}
	if rep.Aborted {
		sb.WriteString("| Stopped early | true |\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Tiles\n\n")
	if len(rep.Tiles) == 0 {
		sb.WriteString("*All tiles agree*\n")
	} else {
		sb.WriteString("| Tileset | Tile | Kind | Variants | Missing | Action |\n")
		sb.WriteString("|---------|------|------|----------|---------|--------|\n")
		for _, t := range rep.Tiles {
			action := t.Action
			if action == "" {
				action = "-"
			}
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %d | %d | %s |\n",
				t.Tileset, t.TileID, t.Kind, t.Variants, t.Missing, action))
		}
	}

	if len(rep.TerrainUpdates) > 0 {
		sb.WriteString("\n## Terrain lists\n\n")
		for _, tu := range rep.TerrainUpdates {
			sb.WriteString(fmt.Sprintf("- `%s`: %s\n", tu.Tileset, strings.Join(tu.Documents, ", ")))
		}
	}

	writeList := func(title string, names []string) {
		if len(names) == 0 {
			return
		}
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", title))
		for _, n := range names {
			sb.WriteString(fmt.Sprintf("- `%s`\n", n))
		}
	}
	writeList("Saved", rep.Saved)
	writeList("Would save", rep.Unsaved)

	_, err := io.WriteString(w, sb.String())
	return err
}
