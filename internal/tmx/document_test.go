package tmx

import (
	"bytes"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/klauern/tmxsync/internal/model"
)

const sampleMap = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.0" orientation="orthogonal" width="4" height="4" tilewidth="32" tileheight="32">
 <tileset firstgid="1" name="terrain" tilewidth="32" tileheight="32">
  <image source="terrain.png" width="256" height="128"/>
  <terraintypes>
   <terrain name="grass" tile="3"/>
   <terrain name="water" tile="-1"/>
  </terraintypes>
  <tile id="2" terrain="0,0,0,1" probability="0.5"/>
  <tile id="5" terrain="1,1,1,1">
   <properties>
    <property name="solid" value="true"/>
    <property name="note">line one
line two</property>
   </properties>
  </tile>
  <tile id="9">
   <animation>
    <frame tileid="9" duration="100"/>
   </animation>
  </tile>
 </tileset>
 <tileset firstgid="65" source="external.tsx"/>
 <layer name="ground" width="4" height="4">
  <data encoding="csv">1,1,1,1,1,1,1,1,1,1,1,1,1,1,1,1</data>
 </layer>
</map>
`

func readSample(t *testing.T, content string) *Document {
	t.Helper()
	doc, err := Read(strings.NewReader(content), "sample.tmx", Options{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	return doc
}

func TestRead_RejectsUnknownRoot(t *testing.T) {
	_, err := Read(strings.NewReader(`<world/>`), "bad.tmx", Options{})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestRead_RejectsInvalidXML(t *testing.T) {
	_, err := Read(strings.NewReader(`<map><tileset`), "bad.tmx", Options{})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestTilesets(t *testing.T) {
	doc := readSample(t, sampleMap)

	got, err := doc.Tilesets()
	if err != nil {
		t.Fatalf("Tilesets() error = %v", err)
	}
	want := []model.Tileset{{
		Name:        "terrain",
		TileWidth:   32,
		TileHeight:  32,
		FirstGID:    1,
		ImageSource: "terrain.png",
		ImageWidth:  256,
		ImageHeight: 128,
	}}
	if !slices.Equal(got, want) {
		t.Errorf("Tilesets() = %+v, want %+v", got, want)
	}
}

func TestTilesets_StandaloneTSX(t *testing.T) {
	doc := readSample(t, `<tileset name="props" tilewidth="16" tileheight="16"><tile id="1" terrain="0,0,0,0"/></tileset>`)

	got, err := doc.Tilesets()
	if err != nil {
		t.Fatalf("Tilesets() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "props" {
		t.Fatalf("Tilesets() = %+v, want the root tileset", got)
	}
	if _, ok, err := doc.Tile("props", 1); err != nil || !ok {
		t.Errorf("Tile() = (_, %v, %v), want a record", ok, err)
	}
}

func TestTilesets_Malformed(t *testing.T) {
	tests := map[string]string{
		"missing name":        `<map><tileset tilewidth="32"/></map>`,
		"non-numeric width":   `<map><tileset name="a" tilewidth="wide"/></map>`,
		"non-numeric image h": `<map><tileset name="a"><image source="a.png" height="tall"/></tileset></map>`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			doc := readSample(t, content)
			if _, err := doc.Tilesets(); !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestTileIDs(t *testing.T) {
	doc := readSample(t, sampleMap)

	ids, err := doc.TileIDs("terrain")
	if err != nil {
		t.Fatalf("TileIDs() error = %v", err)
	}
	if !slices.Equal(ids, []int{2, 5, 9}) {
		t.Errorf("TileIDs() = %v, want [2 5 9]", ids)
	}

	_, err = doc.TileIDs("missing")
	if !errors.Is(err, ErrTilesetNotFound) {
		t.Errorf("expected ErrTilesetNotFound, got %v", err)
	}
	var nf *TilesetNotFoundError
	if !errors.As(err, &nf) || nf.Tileset != "missing" || nf.Path != "sample.tmx" {
		t.Errorf("expected TilesetNotFoundError for missing/sample.tmx, got %#v", err)
	}
	if nf != nil && nf.Suggestion != "" {
		t.Errorf("unexpected suggestion %q for an unrelated name", nf.Suggestion)
	}

	_, err = doc.TileIDs("Terain")
	if !errors.As(err, &nf) || nf.Suggestion != "terrain" {
		t.Fatalf("expected a suggestion of terrain, got %v", err)
	}
	if !strings.Contains(err.Error(), `did you mean "terrain"?`) {
		t.Errorf("error should carry the suggestion: %v", err)
	}
}

func TestTile(t *testing.T) {
	doc := readSample(t, sampleMap)

	tests := map[string]struct {
		id     int
		want   model.Record
		wantOK bool
	}{
		"terrain and probability": {
			id:     2,
			want:   model.Record{Terrain: model.Some("0,0,0,1"), Probability: model.Some("0.5")},
			wantOK: true,
		},
		"properties with text value": {
			id: 5,
			want: model.Record{
				Terrain:    model.Some("1,1,1,1"),
				Properties: map[string]string{"solid": "true", "note": "line one\nline two"},
			},
			wantOK: true,
		},
		"entry with only an animation reads as no data": {id: 9, wantOK: false},
		"absent entry":                                  {id: 40, wantOK: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok, err := doc.Tile("terrain", tt.id)
			if err != nil {
				t.Fatalf("Tile() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("Tile() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("Tile() = %s, want %s", got, tt.want)
			}
		})
	}

	if _, _, err := doc.Tile("missing", 2); !errors.Is(err, ErrTilesetNotFound) {
		t.Errorf("expected ErrTilesetNotFound, got %v", err)
	}
}

func TestTile_MalformedID(t *testing.T) {
	doc := readSample(t, `<map><tileset name="a"><tile id="x"/></tileset></map>`)
	if _, _, err := doc.Tile("a", 1); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestSetTile_InsertsInIDOrder(t *testing.T) {
	doc := readSample(t, sampleMap)

	rec := model.Record{Terrain: model.Some("hill")}
	if err := doc.SetTile("terrain", 3, rec); err != nil {
		t.Fatalf("SetTile() error = %v", err)
	}
	if !doc.Dirty() {
		t.Error("expected document to be dirty after inserting a tile")
	}

	ids, _ := doc.TileIDs("terrain")
	if !slices.Equal(ids, []int{2, 3, 5, 9}) {
		t.Errorf("TileIDs() = %v", ids)
	}

	var order []string
	ts, _ := doc.tileset("terrain")
	for _, el := range ts.SelectElements("tile") {
		order = append(order, el.SelectAttrValue("id", ""))
	}
	if !slices.Equal(order, []string{"2", "3", "5", "9"}) {
		t.Errorf("tile element order = %v", order)
	}

	got, ok, _ := doc.Tile("terrain", 3)
	if !ok || !got.Equal(rec) {
		t.Errorf("Tile(3) = %s (%v), want %s", got, ok, rec)
	}
}

func TestSetTile_ReplacesAllRecordFields(t *testing.T) {
	doc := readSample(t, sampleMap)

	rec := model.Record{Properties: map[string]string{"sound": "splash"}}
	if err := doc.SetTile("terrain", 5, rec); err != nil {
		t.Fatalf("SetTile() error = %v", err)
	}

	got, ok, _ := doc.Tile("terrain", 5)
	if !ok || !got.Equal(rec) {
		t.Errorf("Tile(5) = %s, want %s (old terrain and properties must not survive)", got, rec)
	}
}

func TestSetTile_KeepsUnrelatedContent(t *testing.T) {
	doc := readSample(t, sampleMap)

	if err := doc.SetTile("terrain", 9, model.Record{Probability: model.Some("0.1")}); err != nil {
		t.Fatalf("SetTile() error = %v", err)
	}
	ts, _ := doc.tileset("terrain")
	el, _ := doc.findTile(ts, 9)
	if el == nil || el.SelectElement("animation") == nil {
		t.Error("expected the animation of tile 9 to be kept")
	}

	if err := doc.SetTile("terrain", 9, model.Empty()); err != nil {
		t.Fatalf("SetTile() error = %v", err)
	}
	el, _ = doc.findTile(ts, 9)
	if el == nil {
		t.Fatal("tile 9 should not be removed while it still holds an animation")
	}
	if el.SelectAttr("probability") != nil {
		t.Error("probability should be removed by a default record")
	}
}

const typedTileset = `<map>
 <tileset name="units" tilewidth="16" tileheight="16">
  <tile id="1">
   <properties>
    <property name="hp" type="int" value="3"/>
    <property name="solid" type="bool" value="true"/>
    <property name="faction" propertytype="Faction" value="orcs"/>
   </properties>
  </tile>
 </tileset>
</map>`

func renderDoc(t *testing.T, doc *Document) string {
	t.Helper()
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	return buf.String()
}

func TestTile_ReadsPropertyTypes(t *testing.T) {
	doc := readSample(t, typedTileset)

	rec, ok, err := doc.Tile("units", 1)
	if err != nil || !ok {
		t.Fatalf("Tile() = %v, %v", ok, err)
	}
	want := map[string]model.PropertyType{
		"hp":      {Type: "int"},
		"solid":   {Type: "bool"},
		"faction": {Class: "Faction"},
	}
	if !maps.Equal(rec.Types, want) {
		t.Errorf("Types = %v, want %v", rec.Types, want)
	}
}

func TestSetTile_AdoptCarriesPropertyTypes(t *testing.T) {
	source := readSample(t, typedTileset)
	rec, _, err := source.Tile("units", 1)
	if err != nil {
		t.Fatalf("Tile() error = %v", err)
	}

	target := readSample(t, `<map><tileset name="units" tilewidth="16" tileheight="16"/></map>`)
	if err := target.SetTile("units", 1, rec); err != nil {
		t.Fatalf("SetTile() error = %v", err)
	}

	out := renderDoc(t, target)
	for _, want := range []string{
		`<property name="hp" type="int" value="3"/>`,
		`<property name="solid" type="bool" value="true"/>`,
		`<property name="faction" propertytype="Faction" value="orcs"/>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("adopted record lost its typing, missing %s in:\n%s", want, out)
		}
	}
}

func TestSetTile_OverwriteKeepsPropertyType(t *testing.T) {
	doc := readSample(t, typedTileset)

	rec := model.Record{Properties: map[string]string{"hp": "4", "solid": "true", "faction": "orcs"}}
	if err := doc.SetTile("units", 1, rec); err != nil {
		t.Fatalf("SetTile() error = %v", err)
	}
	if !doc.Dirty() {
		t.Fatal("changing a value should dirty the document")
	}

	out := renderDoc(t, doc)
	if !strings.Contains(out, `<property name="hp" type="int" value="4"/>`) {
		t.Errorf("type of hp was not kept:\n%s", out)
	}
	if !strings.Contains(out, `<property name="faction" propertytype="Faction" value="orcs"/>`) {
		t.Errorf("untouched property changed:\n%s", out)
	}
}

func TestSetTile_PropertiesUpdatedInPlace(t *testing.T) {
	doc := readSample(t, `<map><tileset name="units">
  <tile id="1">
   <properties>
    <property name="hp" type="int" value="3" locked="keep"/>
    <property name="gone" value="x"/>
    <property name="text">one
two</property>
   </properties>
  </tile>
 </tileset></map>`)

	rec := model.Record{Properties: map[string]string{"hp": "5", "text": "single", "new": "n"}}
	if err := doc.SetTile("units", 1, rec); err != nil {
		t.Fatalf("SetTile() error = %v", err)
	}

	ts, _ := doc.tileset("units")
	el, _ := doc.findTile(ts, 1)
	props := el.SelectElement("properties").SelectElements("property")
	var names []string
	for _, p := range props {
		names = append(names, p.SelectAttrValue("name", ""))
	}
	if !slices.Equal(names, []string{"hp", "text", "new"}) {
		t.Errorf("property order = %v, want [hp text new]", names)
	}
	if got := props[0].SelectAttrValue("locked", ""); got != "keep" {
		t.Errorf("unknown attribute lost, got %q", got)
	}
	if props[1].Text() != "" || props[1].SelectAttrValue("value", "") != "single" {
		t.Errorf("multiline value should become an attribute, got text %q", props[1].Text())
	}

	got, _, _ := doc.Tile("units", 1)
	if !got.Equal(rec) {
		t.Errorf("Tile() = %s, want %s", got, rec)
	}
}

func TestSetTile_DefaultRemovesEntry(t *testing.T) {
	doc := readSample(t, sampleMap)

	if err := doc.SetTile("terrain", 2, model.Empty()); err != nil {
		t.Fatalf("SetTile() error = %v", err)
	}
	if !doc.Dirty() {
		t.Error("expected dirty after clearing a tile")
	}
	ids, _ := doc.TileIDs("terrain")
	if slices.Contains(ids, 2) {
		t.Errorf("tile 2 should have been removed, ids = %v", ids)
	}
}

func TestSetTile_NoChangeKeepsClean(t *testing.T) {
	tests := map[string]struct {
		id  int
		rec model.Record
	}{
		"identical record": {
			id:  2,
			rec: model.Record{Terrain: model.Some("0,0,0,1"), Probability: model.Some("0.5")},
		},
		"default into absent entry": {id: 40, rec: model.Empty()},
		"default into default entry": {id: 9, rec: model.Record{Probability: model.Some("1")}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			doc := readSample(t, sampleMap)
			if err := doc.SetTile("terrain", tt.id, tt.rec); err != nil {
				t.Fatalf("SetTile() error = %v", err)
			}
			if doc.Dirty() {
				t.Error("document should stay clean when nothing changes")
			}
		})
	}
}

func TestSetTile_MissingTileset(t *testing.T) {
	doc := readSample(t, sampleMap)
	err := doc.SetTile("missing", 1, model.Record{Terrain: model.Some("x")})
	if !errors.Is(err, ErrTilesetNotFound) {
		t.Errorf("expected ErrTilesetNotFound, got %v", err)
	}
}

func TestSetTile_EmptyTileset(t *testing.T) {
	doc := readSample(t, `<map><tileset name="a"><image source="a.png"/><wangsets/></tileset></map>`)

	if err := doc.SetTile("a", 4, model.Record{Terrain: model.Some("0,0,0,0")}); err != nil {
		t.Fatalf("SetTile() error = %v", err)
	}
	ts, _ := doc.tileset("a")
	tags := []string{}
	for _, el := range ts.ChildElements() {
		tags = append(tags, el.Tag)
	}
	if !slices.Equal(tags, []string{"image", "tile", "wangsets"}) {
		t.Errorf("child order = %v, want tile before wangsets", tags)
	}
}

func TestTerrains(t *testing.T) {
	doc := readSample(t, sampleMap)

	got, err := doc.Terrains("terrain")
	if err != nil {
		t.Fatalf("Terrains() error = %v", err)
	}
	if !slices.Equal(got, []string{"grass", "water"}) {
		t.Errorf("Terrains() = %v", got)
	}

	if _, err := doc.Terrains("missing"); !errors.Is(err, ErrTilesetNotFound) {
		t.Errorf("expected ErrTilesetNotFound, got %v", err)
	}
}

func TestSetTerrains(t *testing.T) {
	doc := readSample(t, sampleMap)

	if err := doc.SetTerrains("terrain", []string{"grass", "water"}); err != nil {
		t.Fatalf("SetTerrains() error = %v", err)
	}
	if doc.Dirty() {
		t.Error("identical terrain list must not dirty the document")
	}

	if err := doc.SetTerrains("terrain", []string{"grass", "water", "sand"}); err != nil {
		t.Fatalf("SetTerrains() error = %v", err)
	}
	if !doc.Dirty() {
		t.Error("expected dirty after extending the terrain list")
	}
	got, _ := doc.Terrains("terrain")
	if !slices.Equal(got, []string{"grass", "water", "sand"}) {
		t.Errorf("Terrains() = %v", got)
	}

	ts, _ := doc.tileset("terrain")
	var tiles []string
	for _, el := range ts.SelectElement("terraintypes").SelectElements("terrain") {
		tiles = append(tiles, el.SelectAttrValue("tile", ""))
	}
	if !slices.Equal(tiles, []string{"3", "-1", "-1"}) {
		t.Errorf("terrain tile attributes = %v, want [3 -1 -1]", tiles)
	}
}

func TestSetTerrains_CreatesTerrainTypes(t *testing.T) {
	doc := readSample(t, `<map><tileset name="a"><image source="a.png"/><tile id="0" terrain="0,0,0,0"/></tileset></map>`)

	if err := doc.SetTerrains("a", []string{"grass"}); err != nil {
		t.Fatalf("SetTerrains() error = %v", err)
	}
	ts, _ := doc.tileset("a")
	tags := []string{}
	for _, el := range ts.ChildElements() {
		tags = append(tags, el.Tag)
	}
	if !slices.Equal(tags, []string{"image", "terraintypes", "tile"}) {
		t.Errorf("child order = %v, want terraintypes before tiles", tags)
	}
	got, _ := doc.Terrains("a")
	if !slices.Equal(got, []string{"grass"}) {
		t.Errorf("Terrains() = %v", got)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "level.tmx")
	if err := os.WriteFile(path, []byte(sampleMap), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	before, _ := os.Stat(path)

	doc, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := doc.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	after, _ := os.Stat(path)
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("a clean document must not be written")
	}

	if err := doc.SetTile("terrain", 7, model.Record{Terrain: model.Some("hill")}); err != nil {
		t.Fatalf("SetTile() error = %v", err)
	}
	if err := doc.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if doc.Dirty() {
		t.Error("Save() should reset the dirty flag")
	}

	reopened, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Open() after save error = %v", err)
	}
	got, ok, _ := reopened.Tile("terrain", 7)
	if !ok || got.Terrain.Value != "hill" {
		t.Errorf("Tile(7) after save = %s (%v)", got, ok)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `<layer name="ground"`) {
		t.Error("unrelated map content was lost on save")
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.tmx"), Options{}); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestWriteTo(t *testing.T) {
	doc := readSample(t, sampleMap)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if !strings.Contains(buf.String(), `name="terrain"`) {
		t.Errorf("WriteTo() output missing tileset: %s", buf.String())
	}
}
