package model

import "fmt"

// Tileset identifies one tileset declared in a map document.
// Documents refer to "the same tileset" purely by Name.
type Tileset struct {
	Name        string
	TileWidth   int
	TileHeight  int
	FirstGID    int
	ImageSource string
	ImageWidth  int
	ImageHeight int
}

// Equal reports whether every field of t and other matches.
func (t Tileset) Equal(other Tileset) bool {
	return t == other
}

// SameGeometry reports whether t and other describe the same tile grid and image.
// FirstGID is map-local and is ignored.
func (t Tileset) SameGeometry(other Tileset) bool {
	return t.TileWidth == other.TileWidth &&
		t.TileHeight == other.TileHeight &&
		t.ImageSource == other.ImageSource &&
		t.ImageWidth == other.ImageWidth &&
		t.ImageHeight == other.ImageHeight
}

// String returns a short description such as "terrain (32x32, terrain.png)".
func (t Tileset) String() string {
	if t.ImageSource == "" {
		return fmt.Sprintf("%s (%dx%d)", t.Name, t.TileWidth, t.TileHeight)
	}
	return fmt.Sprintf("%s (%dx%d, %s)", t.Name, t.TileWidth, t.TileHeight, t.ImageSource)
}
