//nolint:revive // var-naming - package name is meaningful
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CreateTempDir creates a temporary directory for testing
func CreateTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "tmxsync-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})
	return dir
}

// WriteFile writes content to a file in the test directory
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertEqual fails if got != want
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// TMXMap wraps tileset bodies into a minimal map document. Each body is the
// inner XML of a 16x16 <tileset> named terrain, terrain2, ... in order.
func TMXMap(bodies ...string) string {
	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	sb.WriteString("<map version=\"1.0\" orientation=\"orthogonal\" width=\"2\" height=\"2\" tilewidth=\"16\" tileheight=\"16\">\n")
	gid := 1
	for i, body := range bodies {
		name := "terrain"
		if i > 0 {
			name = fmt.Sprintf("terrain%d", i+1)
		}
		fmt.Fprintf(&sb, " <tileset firstgid=\"%d\" name=\"%s\" tilewidth=\"16\" tileheight=\"16\">\n", gid, name)
		sb.WriteString(body)
		sb.WriteString(" </tileset>\n")
		gid += 64
	}
	sb.WriteString("</map>\n")
	return sb.String()
}

// WriteMaps writes each content to dir as a.tmx, b.tmx, ... and returns the paths.
func WriteMaps(t *testing.T, dir string, contents ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(contents))
	for i, content := range contents {
		path := filepath.Join(dir, string(rune('a'+i))+".tmx")
		WriteFile(t, path, content)
		paths = append(paths, path)
	}
	return paths
}
