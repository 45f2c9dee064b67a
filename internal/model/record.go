// Package model defines the value types shared across tmxsync: tile records
// and tileset identities.
package model

import (
	"encoding/json"
	"maps"
	"sort"
	"strconv"
	"strings"
)

// DefaultProbability is the probability Tiled assumes when a tile carries none.
const DefaultProbability = 1.0

// Optional is a string value that may be absent.
// An absent value is distinct from any present value, including "".
type Optional struct {
	Value string
	Set   bool
}

// Some returns a present Optional holding v.
func Some(v string) Optional {
	return Optional{Value: v, Set: true}
}

// None returns an absent Optional.
func None() Optional {
	return Optional{}
}

// Get returns the value and whether it is present.
func (o Optional) Get() (string, bool) {
	return o.Value, o.Set
}

// String returns the value, or "<none>" when absent.
func (o Optional) String() string {
	if !o.Set {
		return "<none>"
	}
	return o.Value
}

// PropertyType holds the typing attributes Tiled writes next to a custom
// property's name and value.
type PropertyType struct {
	// Type is the type attribute: int, float, bool, color, file, object or
	// class. Empty means string.
	Type string
	// Class is the propertytype attribute naming a custom class or enum.
	Class string
}

// IsZero reports whether no typing attribute is set.
func (t PropertyType) IsZero() bool {
	return t.Type == "" && t.Class == ""
}

// Record is the metadata Tiled stores for one tile id of a tileset:
// its terrain corners, its spawn probability and its custom properties.
//
// Records are value snapshots. They are read from a document, compared,
// and written into other documents; they are never updated in place.
type Record struct {
	// Terrain is the raw terrain attribute, e.g. "0,0,,1".
	Terrain Optional
	// Probability is the raw probability attribute, e.g. "0.5".
	Probability Optional
	// Properties maps custom property names to their values.
	Properties map[string]string
	// Types holds the typing attributes of properties, keyed by name. They
	// travel with the record when it is written but do not take part in
	// equality.
	Types map[string]PropertyType
}

// Empty returns the default record: no terrain, no probability, no properties.
func Empty() Record {
	return Record{}
}

// Equal reports whether r and other hold the same terrain, probability and
// property values. A nil and an empty property map are equal. Property types
// are ignored.
func (r Record) Equal(other Record) bool {
	if r.Terrain != other.Terrain || r.Probability != other.Probability {
		return false
	}
	return maps.Equal(r.Properties, other.Properties)
}

// IsDefault reports whether r carries no data worth persisting.
func (r Record) IsDefault() bool {
	n := r.Normalize()
	return !n.Terrain.Set && !n.Probability.Set && len(n.Properties) == 0
}

// Normalize returns a copy of r with default-equivalent values removed:
// empty terrain and probability attributes become absent, and a probability
// equal to DefaultProbability is dropped.
func (r Record) Normalize() Record {
	out := r.Clone()
	if out.Terrain.Set && out.Terrain.Value == "" {
		out.Terrain = None()
	}
	if out.Probability.Set {
		v := strings.TrimSpace(out.Probability.Value)
		if v == "" {
			out.Probability = None()
		} else if f, err := strconv.ParseFloat(v, 64); err == nil && f == DefaultProbability {
			out.Probability = None()
		}
	}
	if len(out.Properties) == 0 {
		out.Properties = nil
	}
	for name, t := range out.Types {
		if _, ok := out.Properties[name]; !ok || t.IsZero() {
			delete(out.Types, name)
		}
	}
	if len(out.Types) == 0 {
		out.Types = nil
	}
	return out
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := Record{Terrain: r.Terrain, Probability: r.Probability}
	if r.Properties != nil {
		out.Properties = maps.Clone(r.Properties)
	}
	if r.Types != nil {
		out.Types = maps.Clone(r.Types)
	}
	return out
}

// PropertyNames returns the property names in sorted order.
func (r Record) PropertyNames() []string {
	names := make([]string, 0, len(r.Properties))
	for name := range r.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Key returns a canonical encoding of r, used to group records. Two records
// have the same key if and only if they are Equal.
func (r Record) Key() string {
	var sb strings.Builder
	writeOptional := func(o Optional) {
		if !o.Set {
			sb.WriteString("-")
			return
		}
		sb.WriteString(strconv.Quote(o.Value))
	}
	writeOptional(r.Terrain)
	sb.WriteByte('|')
	writeOptional(r.Probability)
	for _, name := range r.PropertyNames() {
		sb.WriteByte('|')
		sb.WriteString(strconv.Quote(name))
		sb.WriteByte('=')
		sb.WriteString(strconv.Quote(r.Properties[name]))
	}
	return sb.String()
}

// String renders r as compact JSON with sorted keys, omitting absent fields.
func (r Record) String() string {
	view := map[string]any{}
	if r.Terrain.Set {
		view["terrain"] = r.Terrain.Value
	}
	if r.Probability.Set {
		view["probability"] = r.Probability.Value
	}
	if len(r.Properties) > 0 {
		view["properties"] = r.Properties
	}
	data, err := json.Marshal(view)
	if err != nil {
		return "{}"
	}
	return string(data)
}
