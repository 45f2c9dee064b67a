package tmx

import (
	"errors"
	"fmt"
)

var (
	// ErrTilesetNotFound is returned when a document does not declare the requested tileset.
	ErrTilesetNotFound = errors.New("tileset not found")

	// ErrMalformed is returned when a document is not a usable TMX/TSX tree.
	ErrMalformed = errors.New("malformed map document")
)

// TilesetNotFoundError reports which document lacks which tileset.
type TilesetNotFoundError struct {
	Tileset string
	Path    string
	// Suggestion is a similarly named tileset the document does declare.
	Suggestion string
}

func (e *TilesetNotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("tileset %q does not exist in %s (did you mean %q?)", e.Tileset, e.Path, e.Suggestion)
	}
	return fmt.Sprintf("tileset %q does not exist in %s", e.Tileset, e.Path)
}

// Unwrap allows errors.Is(err, ErrTilesetNotFound).
func (e *TilesetNotFoundError) Unwrap() error {
	return ErrTilesetNotFound
}

func malformed(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformed, path, fmt.Sprintf(format, args...))
}
