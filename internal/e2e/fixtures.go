package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Fixture provides helpers for creating map files in E2E tests.
type Fixture struct {
	t       *testing.T
	baseDir string
}

// NewFixture creates a new fixture helper rooted at the given directory.
func NewFixture(t *testing.T, baseDir string) *Fixture {
	t.Helper()
	return &Fixture{
		t:       t,
		baseDir: baseDir,
	}
}

// WriteFile writes content to a file relative to the fixture base directory.
// It creates parent directories as needed.
func (f *Fixture) WriteFile(relPath, content string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		f.t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
		f.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}

	return fullPath
}

// Tileset describes one inline tileset of a fixture map.
type Tileset struct {
	Name     string
	Terrains []string
	// Tiles holds the raw <tile> elements, e.g. `<tile id="3" terrain="0,0,0,0"/>`.
	Tiles []string
}

// WriteMap writes a Tiled map holding the given tilesets. Tilesets are
// 16x16 with 64 tiles each and consecutive firstgids.
func (f *Fixture) WriteMap(relPath string, tilesets ...Tileset) string {
	f.t.Helper()

	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	sb.WriteString("<map version=\"1.0\" orientation=\"orthogonal\" width=\"4\" height=\"4\" tilewidth=\"16\" tileheight=\"16\">\n")
	for i, ts := range tilesets {
		fmt.Fprintf(&sb, " <tileset firstgid=\"%d\" name=\"%s\" tilewidth=\"16\" tileheight=\"16\" tilecount=\"64\" columns=\"8\">\n", 1+64*i, ts.Name)
		fmt.Fprintf(&sb, "  <image source=\"%s.png\" width=\"128\" height=\"128\"/>\n", ts.Name)
		if len(ts.Terrains) > 0 {
			sb.WriteString("  <terraintypes>\n")
			for _, name := range ts.Terrains {
				fmt.Fprintf(&sb, "   <terrain name=\"%s\" tile=\"-1\"/>\n", name)
			}
			sb.WriteString("  </terraintypes>\n")
		}
		for _, tile := range ts.Tiles {
			sb.WriteString("  " + tile + "\n")
		}
		sb.WriteString(" </tileset>\n")
	}
	sb.WriteString(" <layer name=\"ground\" width=\"4\" height=\"4\">\n")
	sb.WriteString("  <data encoding=\"csv\">1,1,1,1,1,1,1,1,1,1,1,1,1,1,1,1</data>\n")
	sb.WriteString(" </layer>\n")
	sb.WriteString("</map>\n")

	return f.WriteFile(relPath, sb.String())
}

// Path returns the full path for a relative path.
func (f *Fixture) Path(relPath string) string {
	return filepath.Join(f.baseDir, relPath)
}

// Exists returns true if the file or directory exists.
func (f *Fixture) Exists(relPath string) bool {
	f.t.Helper()
	_, err := os.Stat(filepath.Join(f.baseDir, relPath))
	return err == nil
}

// ReadFile reads and returns the content of a file.
func (f *Fixture) ReadFile(relPath string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	// #nosec G304 - fullPath is constructed from trusted test fixture base and test-provided path
	data, err := os.ReadFile(fullPath)
	if err != nil {
		f.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}

	return string(data)
}

// MapsFixture creates a fixture helper for a maps directory inside the
// harness home.
func (h *Harness) MapsFixture() *Fixture {
	h.t.Helper()

	dir := filepath.Join(h.homeDir, "maps")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		h.t.Fatalf("failed to create maps directory: %v", err)
	}
	return NewFixture(h.t, dir)
}
