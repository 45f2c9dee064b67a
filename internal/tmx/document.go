// Package tmx reads and writes the tileset metadata stored in Tiled map (.tmx)
// and tileset (.tsx) files.
//
// A Document keeps the whole XML tree in memory so that everything tmxsync
// does not understand (layers, objects, animations, editor settings) is
// written back untouched. Only tile records and terrain lists are modified.
package tmx

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/klauern/tmxsync/internal/logging"
	"github.com/klauern/tmxsync/internal/model"
	"github.com/klauern/tmxsync/internal/similarity"
)

// NoTerrainTile is the tile attribute written for terrains that have no
// representative tile.
const NoTerrainTile = "-1"

// Options configures how a Document is written back.
type Options struct {
	// Indent re-indents the tree with this many spaces before saving.
	// Zero keeps the original layout; new elements are then appended unindented.
	Indent int
}

// DefaultOptions matches the one-space indentation Tiled writes.
func DefaultOptions() Options {
	return Options{Indent: 1}
}

// Document is one map or tileset file loaded for synchronization.
type Document struct {
	path  string
	tree  *etree.Document
	opts  Options
	dirty bool
}

// Open parses the file at path.
func Open(path string, opts Options) (*Document, error) {
	// #nosec G304 - path is supplied by the operator on the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Read(bytes.NewReader(data), path, opts)
}

// Read parses a document from r. The path is used for Save and for messages.
func Read(r io.Reader, path string, opts Options) (*Document, error) {
	tree := etree.NewDocument()
	if _, err := tree.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	root := tree.Root()
	if root == nil || (root.Tag != "map" && root.Tag != "tileset") {
		return nil, malformed(path, "root element must be <map> or <tileset>")
	}

	logging.Debug("document loaded", logging.Path(path), slog.String("root", root.Tag))

	return &Document{path: path, tree: tree, opts: opts}, nil
}

// Path returns the file path the document was loaded from.
func (d *Document) Path() string {
	return d.path
}

// Name returns the name used to refer to the document in prompts and reports.
func (d *Document) Name() string {
	return d.path
}

// Dirty reports whether the tree was modified since it was loaded or saved.
func (d *Document) Dirty() bool {
	return d.dirty
}

// Save writes the document back to its path if it is dirty.
func (d *Document) Save() error {
	if !d.dirty {
		logging.Debug("document unchanged, not saving", logging.Path(d.path))
		return nil
	}
	if d.opts.Indent > 0 {
		d.tree.Indent(d.opts.Indent)
	}
	if err := d.tree.WriteToFile(d.path); err != nil {
		return fmt.Errorf("failed to write %s: %w", d.path, err)
	}
	d.dirty = false
	logging.Info("document saved", logging.Path(d.path))
	return nil
}

// WriteTo serializes the current tree to w without touching the dirty flag.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if d.opts.Indent > 0 {
		d.tree.Indent(d.opts.Indent)
	}
	return d.tree.WriteTo(w)
}

// Tilesets returns the inline tilesets declared by the document, in file order.
// Tilesets that reference an external .tsx file are skipped.
func (d *Document) Tilesets() ([]model.Tileset, error) {
	var result []model.Tileset
	for _, el := range d.tilesetElements() {
		ts := model.Tileset{Name: el.SelectAttrValue("name", "")}
		if ts.Name == "" {
			return nil, malformed(d.path, "tileset without a name")
		}

		var err error
		if ts.TileWidth, err = d.intAttr(el, "tilewidth"); err != nil {
			return nil, err
		}
		if ts.TileHeight, err = d.intAttr(el, "tileheight"); err != nil {
			return nil, err
		}
		if ts.FirstGID, err = d.intAttr(el, "firstgid"); err != nil {
			return nil, err
		}
		if img := el.SelectElement("image"); img != nil {
			ts.ImageSource = img.SelectAttrValue("source", "")
			if ts.ImageWidth, err = d.intAttr(img, "width"); err != nil {
				return nil, err
			}
			if ts.ImageHeight, err = d.intAttr(img, "height"); err != nil {
				return nil, err
			}
		}
		result = append(result, ts)
	}
	return result, nil
}

// TileIDs returns the ids of every <tile> entry of the tileset, ascending.
func (d *Document) TileIDs(tileset string) ([]int, error) {
	ts, err := d.tileset(tileset)
	if err != nil {
		return nil, err
	}
	var ids []int
	for _, el := range ts.SelectElements("tile") {
		id, err := d.tileID(el)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// Tile returns the record stored for tile id. The boolean is false when the
// document has no entry for the id, or when the entry holds only default
// values: both mean "no data".
func (d *Document) Tile(tileset string, id int) (model.Record, bool, error) {
	ts, err := d.tileset(tileset)
	if err != nil {
		return model.Record{}, false, err
	}
	el, err := d.findTile(ts, id)
	if err != nil || el == nil {
		return model.Record{}, false, err
	}
	rec := readRecord(el).Normalize()
	if rec.IsDefault() {
		return model.Record{}, false, nil
	}
	return rec, true, nil
}

// SetTile replaces the record stored for tile id.
//
// The terrain and probability attributes are rewritten from rec and the
// <properties> child is brought in line with it; any other content of the
// <tile> element is kept. An element left without data is removed, and a
// default record is never inserted. The document only becomes dirty if the
// stored record changes; a difference in property types alone is not a change.
func (d *Document) SetTile(tileset string, id int, rec model.Record) error {
	ts, err := d.tileset(tileset)
	if err != nil {
		return err
	}
	el, err := d.findTile(ts, id)
	if err != nil {
		return err
	}
	rec = rec.Normalize()

	if el == nil {
		if rec.IsDefault() {
			return nil
		}
		el = etree.NewElement("tile")
		el.CreateAttr("id", strconv.Itoa(id))
		if idx := tileInsertIndex(ts, id); idx >= 0 {
			ts.InsertChildAt(idx, el)
		} else {
			ts.AddChild(el)
		}
	} else if readRecord(el).Normalize().Equal(rec) {
		return nil
	}

	el.RemoveAttr("terrain")
	el.RemoveAttr("probability")
	if v, ok := rec.Terrain.Get(); ok {
		el.CreateAttr("terrain", v)
	}
	if v, ok := rec.Probability.Get(); ok {
		el.CreateAttr("probability", v)
	}
	writeProperties(el, rec)

	if len(el.Attr) == 1 && len(el.ChildElements()) == 0 {
		ts.RemoveChild(el)
	}

	d.dirty = true
	logging.Debug("tile written",
		logging.Path(d.path),
		logging.Tileset(tileset),
		logging.TileID(id),
		slog.String("record", rec.String()),
	)
	return nil
}

// Terrains returns the ordered terrain names of the tileset.
func (d *Document) Terrains(tileset string) ([]string, error) {
	ts, err := d.tileset(tileset)
	if err != nil {
		return nil, err
	}
	names := []string{}
	if types := ts.SelectElement("terraintypes"); types != nil {
		for _, t := range types.SelectElements("terrain") {
			names = append(names, t.SelectAttrValue("name", ""))
		}
	}
	return names, nil
}

// SetTerrains replaces the terrain list of the tileset. Entries whose name is
// unchanged at the same position keep their representative tile; every other
// entry is written with NoTerrainTile. Writing an identical list is a no-op.
func (d *Document) SetTerrains(tileset string, names []string) error {
	current, err := d.Terrains(tileset)
	if err != nil {
		return err
	}
	if slices.Equal(current, names) {
		return nil
	}
	ts, err := d.tileset(tileset)
	if err != nil {
		return err
	}

	types := ts.SelectElement("terraintypes")
	keep := map[int]string{}
	if types == nil {
		types = etree.NewElement("terraintypes")
		if idx := terrainTypesInsertIndex(ts); idx >= 0 {
			ts.InsertChildAt(idx, types)
		} else {
			ts.AddChild(types)
		}
	} else {
		for i, t := range types.SelectElements("terrain") {
			if i < len(names) && t.SelectAttrValue("name", "") == names[i] {
				keep[i] = t.SelectAttrValue("tile", NoTerrainTile)
			}
			types.RemoveChild(t)
		}
	}

	for i, name := range names {
		t := types.CreateElement("terrain")
		t.CreateAttr("name", name)
		tile, ok := keep[i]
		if !ok {
			tile = NoTerrainTile
		}
		t.CreateAttr("tile", tile)
	}

	d.dirty = true
	logging.Debug("terrains written",
		logging.Path(d.path),
		logging.Tileset(tileset),
		logging.Count(len(names)),
	)
	return nil
}

// tilesetElements returns the inline <tileset> elements of the document.
func (d *Document) tilesetElements() []*etree.Element {
	root := d.tree.Root()
	if root.Tag == "tileset" {
		return []*etree.Element{root}
	}
	var result []*etree.Element
	for _, el := range root.SelectElements("tileset") {
		if src := el.SelectAttrValue("source", ""); src != "" {
			logging.Debug("skipping external tileset",
				logging.Path(d.path),
				slog.String("source", src),
			)
			continue
		}
		result = append(result, el)
	}
	return result
}

func (d *Document) tileset(name string) (*etree.Element, error) {
	elements := d.tilesetElements()
	names := make([]string, 0, len(elements))
	for _, el := range elements {
		n := el.SelectAttrValue("name", "")
		if n == name {
			return el, nil
		}
		names = append(names, n)
	}
	return nil, &TilesetNotFoundError{
		Tileset:    name,
		Path:       d.path,
		Suggestion: similarity.Suggest(name, names),
	}
}

func (d *Document) findTile(ts *etree.Element, id int) (*etree.Element, error) {
	for _, el := range ts.SelectElements("tile") {
		tid, err := d.tileID(el)
		if err != nil {
			return nil, err
		}
		if tid == id {
			return el, nil
		}
	}
	return nil, nil
}

func (d *Document) tileID(el *etree.Element) (int, error) {
	raw := el.SelectAttrValue("id", "")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, malformed(d.path, "tile id %q is not a number", raw)
	}
	return id, nil
}

// intAttr parses a numeric attribute. A missing attribute reads as zero.
func (d *Document) intAttr(el *etree.Element, name string) (int, error) {
	raw := el.SelectAttrValue(name, "")
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, malformed(d.path, "<%s %s=%q> is not a number", el.Tag, name, raw)
	}
	return v, nil
}

// writeProperties makes the <properties> child of el hold exactly the
// properties of rec. Existing <property> elements are updated in place, so
// attributes and content tmxsync does not model survive; new ones are
// appended in name order. Types from rec override the element's own.
func writeProperties(el *etree.Element, rec model.Record) {
	props := el.SelectElement("properties")
	if len(rec.Properties) == 0 {
		if props != nil {
			el.RemoveChild(props)
		}
		return
	}
	if props == nil {
		props = etree.NewElement("properties")
		el.InsertChildAt(0, props)
	}

	existing := make(map[string]*etree.Element, len(rec.Properties))
	for _, p := range props.SelectElements("property") {
		name := p.SelectAttrValue("name", "")
		_, wanted := rec.Properties[name]
		_, dup := existing[name]
		if !wanted || dup {
			props.RemoveChild(p)
			continue
		}
		existing[name] = p
	}

	for _, name := range rec.PropertyNames() {
		p, ok := existing[name]
		if !ok {
			p = props.CreateElement("property")
			p.CreateAttr("name", name)
		}
		if t, ok := rec.Types[name]; ok {
			setOrRemoveAttr(p, "type", t.Type)
			setOrRemoveAttr(p, "propertytype", t.Class)
		}
		setPropertyValue(p, rec.Properties[name])
	}
}

// setPropertyValue stores value in p, as element text when it spans lines
// the way Tiled does. An unchanged value leaves p untouched.
func setPropertyValue(p *etree.Element, value string) {
	stored := p.SelectAttr("value") != nil || p.Text() != ""
	if stored && propertyValue(p) == value {
		return
	}
	if strings.Contains(value, "\n") {
		p.RemoveAttr("value")
		p.SetText(value)
		return
	}
	if p.Text() != "" {
		p.SetText("")
	}
	p.CreateAttr("value", value)
}

func setOrRemoveAttr(el *etree.Element, key, value string) {
	if value == "" {
		el.RemoveAttr(key)
		return
	}
	el.CreateAttr(key, value)
}

// propertyValue reads the value attribute of p, falling back to its text.
func propertyValue(p *etree.Element) string {
	if v := p.SelectAttr("value"); v != nil {
		return v.Value
	}
	return p.Text()
}

func readRecord(el *etree.Element) model.Record {
	var rec model.Record
	if a := el.SelectAttr("terrain"); a != nil {
		rec.Terrain = model.Some(a.Value)
	}
	if a := el.SelectAttr("probability"); a != nil {
		rec.Probability = model.Some(a.Value)
	}
	if props := el.SelectElement("properties"); props != nil {
		for _, p := range props.SelectElements("property") {
			if rec.Properties == nil {
				rec.Properties = map[string]string{}
			}
			name := p.SelectAttrValue("name", "")
			rec.Properties[name] = propertyValue(p)
			t := model.PropertyType{
				Type:  p.SelectAttrValue("type", ""),
				Class: p.SelectAttrValue("propertytype", ""),
			}
			if !t.IsZero() {
				if rec.Types == nil {
					rec.Types = map[string]model.PropertyType{}
				}
				rec.Types[name] = t
			}
		}
	}
	return rec
}

// tileInsertIndex returns the child index a new tile with id should be
// inserted at to keep tiles in id order, or -1 to append.
func tileInsertIndex(ts *etree.Element, id int) int {
	var last *etree.Element
	for _, el := range ts.ChildElements() {
		switch el.Tag {
		case "tile":
			if tid, err := strconv.Atoi(el.SelectAttrValue("id", "")); err == nil && tid > id {
				return el.Index()
			}
			last = el
		case "wangsets":
			if last == nil {
				return el.Index()
			}
		}
	}
	if last != nil {
		return last.Index() + 1
	}
	return -1
}

// terrainTypesInsertIndex places <terraintypes> before the first tile entry,
// which is where Tiled expects it.
func terrainTypesInsertIndex(ts *etree.Element) int {
	for _, el := range ts.ChildElements() {
		if el.Tag == "tile" || el.Tag == "wangsets" {
			return el.Index()
		}
	}
	return -1
}
