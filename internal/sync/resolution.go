package sync

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/klauern/tmxsync/internal/model"
)

// Action is what the operator decided to do about one tile id.
type Action string

const (
	// ActionAdopt writes the chosen record into every document not holding it.
	ActionAdopt Action = "adopt"

	// ActionClear writes the default record into every document.
	ActionClear Action = "clear"

	// ActionSkip leaves every document as it is.
	ActionSkip Action = "skip"

	// ActionAbort stops processing and proceeds directly to saving.
	ActionAbort Action = "abort"
)

// IsValid returns true if the action is recognized.
func (a Action) IsValid() bool {
	switch a {
	case ActionAdopt, ActionClear, ActionSkip, ActionAbort:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// Description returns a human-readable description of the action.
func (a Action) Description() string {
	switch a {
	case ActionAdopt:
		return "Use the selected record in every map"
	case ActionClear:
		return "Clear this tile from all maps"
	case ActionSkip:
		return "Leave this tile as it is"
	case ActionAbort:
		return "Stop here and save the changes made so far"
	default:
		return "Unknown action"
	}
}

// ParseAction parses an action name. "quit" is accepted for ActionAbort.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if a == "quit" {
		return ActionAbort, nil
	}
	if !a.IsValid() {
		return "", fmt.Errorf("unknown action %q (valid: adopt, clear, skip, quit)", s)
	}
	return a, nil
}

// Outcome is the decision for one tile id.
type Outcome struct {
	Action Action
	// Record is the record to adopt. Only meaningful for ActionAdopt.
	Record model.Record
}

// Adopt returns an outcome that propagates rec to every document.
func Adopt(rec model.Record) Outcome {
	return Outcome{Action: ActionAdopt, Record: rec}
}

// Clear returns an outcome that resets the tile in every document.
func Clear() Outcome {
	return Outcome{Action: ActionClear}
}

// Skip returns an outcome that leaves the tile untouched.
func Skip() Outcome {
	return Outcome{Action: ActionSkip}
}

// Abort returns an outcome that stops the run and saves.
func Abort() Outcome {
	return Outcome{Action: ActionAbort}
}

// Kind classifies the state of one tile id across documents.
type Kind string

const (
	// KindAgreement means every document holds the same record, or none holds any data.
	KindAgreement Kind = "agreement"

	// KindConflict means documents hold different records.
	KindConflict Kind = "conflict"

	// KindPartial means documents agree but some have no entry at all.
	KindPartial Kind = "partial"

	// KindConflictPartial means documents disagree and some have no entry.
	KindConflictPartial Kind = "conflict+partial"
)

// Variant is one distinct record together with the documents holding it.
type Variant struct {
	Record  model.Record
	Holders []string
}

// Situation is everything a Resolver needs to decide about one tile id.
type Situation struct {
	Tileset string
	TileID  int
	Kind    Kind
	// Variants lists the distinct records in the order documents were read.
	Variants []Variant
	// Missing names the documents without data for the tile.
	Missing []string
}

// DocumentLabels returns labels for docs suitable for a menu. When every
// document named in s has a distinct base name, labels are base names;
// otherwise the full names are kept so no two documents read alike.
func (s Situation) DocumentLabels(docs []string) []string {
	owners := map[string]string{}
	unique := true
	check := func(name string) {
		base := filepath.Base(name)
		if other, ok := owners[base]; ok && other != name {
			unique = false
		}
		owners[base] = name
	}
	for _, v := range s.Variants {
		for _, h := range v.Holders {
			check(h)
		}
	}
	for _, m := range s.Missing {
		check(m)
	}

	labels := make([]string, len(docs))
	for i, d := range docs {
		if unique {
			d = filepath.Base(d)
		}
		labels[i] = d
	}
	return labels
}

// Resolver turns a Situation into an Outcome. Implementations may prompt a
// human or be a pure function of the situation.
type Resolver interface {
	Resolve(ctx context.Context, s Situation) (Outcome, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, s Situation) (Outcome, error)

// Resolve calls f(ctx, s).
func (f ResolverFunc) Resolve(ctx context.Context, s Situation) (Outcome, error) {
	return f(ctx, s)
}

// SkipAll is a Resolver that never changes anything.
var SkipAll Resolver = ResolverFunc(func(context.Context, Situation) (Outcome, error) {
	return Skip(), nil
})

// Describe returns a one-line description of the situation for logs and headers.
func (s Situation) Describe() string {
	switch s.Kind {
	case KindConflict:
		return fmt.Sprintf("tile %s/%d has %d conflicting definitions", s.Tileset, s.TileID, len(s.Variants))
	case KindPartial:
		return fmt.Sprintf("tile %s/%d is missing from %s", s.Tileset, s.TileID, strings.Join(s.Missing, ", "))
	case KindConflictPartial:
		return fmt.Sprintf("tile %s/%d has %d conflicting definitions and is missing from %s",
			s.Tileset, s.TileID, len(s.Variants), strings.Join(s.Missing, ", "))
	default:
		return fmt.Sprintf("tile %s/%d is in agreement", s.Tileset, s.TileID)
	}
}
