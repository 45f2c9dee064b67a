package tui

import (
	"os"
	"strings"
	"testing"
)

func TestTruncateText(t *testing.T) {
	tests := map[string]struct {
		text  string
		width int
		want  string
	}{
		"fits":       {text: "terrain", width: 10, want: "terrain"},
		"ellipsis":   {text: "terrain types", width: 8, want: "terra..."},
		"tiny width": {text: "terrain", width: 2, want: "te"},
		"zero width": {text: "terrain", width: 0, want: ""},
		"wide runes": {text: "草原草原草原", width: 7, want: "草原..."},
		"multibyte":  {text: "höhle-süd", width: 6, want: "höh..."},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := truncateText(tt.text, tt.width); got != tt.want {
				t.Errorf("truncateText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9)
	want := "one two\nthree\nfour"
	if got != want {
		t.Errorf("wrapText() = %q, want %q", got, want)
	}

	if got := wrapText("line\nbreak", 0); got != "line\nbreak" {
		t.Errorf("zero width should return text unchanged, got %q", got)
	}
	if got := wrapText("   ", 5); got != "" {
		t.Errorf("blank text should wrap to empty, got %q", got)
	}
}

func TestWrapText_KeepsLineBreaks(t *testing.T) {
	got := wrapText("first line of lore\n\nsecond", 10)
	want := "first line\nof lore\n\nsecond"
	if got != want {
		t.Errorf("wrapText() = %q, want %q", got, want)
	}
}

func TestFormatDetail_MultilineValue(t *testing.T) {
	got := formatDetail("lore = ", "north\nsouth", 30)
	want := "lore = north\n       south"
	if got != want {
		t.Errorf("formatDetail() = %q, want %q", got, want)
	}
}

func TestFormatDetail_IndentsContinuationLines(t *testing.T) {
	got := formatDetail("used by: ", "a.tmx b.tmx c.tmx", 20)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
	if lines[0] != "used by: a.tmx b.tmx" {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[1] != "         c.tmx" {
		t.Errorf("second line = %q", lines[1])
	}
}

func TestFormatDetail_NarrowWidth(t *testing.T) {
	if got := formatDetail("label: ", "value", 3); got != "label: value" {
		t.Errorf("formatDetail() = %q", got)
	}
}

func TestAvailable_RegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}
	defer func() { _ = f.Close() }()

	if Available(f.Fd(), f.Fd()) {
		t.Error("a regular file is not a terminal")
	}
}
