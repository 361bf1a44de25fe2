// Package diff computes and classifies the difference between two
// points in a graph's edit history (spec.md §4.3).
package diff

import (
	"sort"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
)

// ChangeKind classifies how an entity differs between base and head.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota
	ChangeDeleted
	ChangeModified
)

// AspectFlags marks which aspects of a ChangeModified entry changed.
type AspectFlags uint8

const (
	AspectGeometry AspectFlags = 1 << iota
	AspectProperties
)

// Change describes one entity's difference between base and head.
type Change struct {
	ID     entity.ID
	Kind   ChangeKind
	Aspect AspectFlags // only meaningful when Kind == ChangeModified
	Base   entity.Entity
	Head   entity.Entity
}

// Diff is the computed difference between base and head. base may be
// nil, in which case every touched id in head is an addition (spec.md
// §4.3).
type Diff struct {
	base    *graph.Graph
	head    *graph.Graph
	changes map[entity.ID]Change
}

// New constructs the difference between base and head.
func New(base, head *graph.Graph) *Diff {
	d := &Diff{base: base, head: head, changes: make(map[entity.ID]Change)}

	touched := make(map[entity.ID]bool)
	if head != nil {
		for _, id := range head.LocalIDs() {
			touched[id] = true
		}
	}
	if base != nil {
		for _, id := range base.LocalIDs() {
			touched[id] = true
		}
	}

	for id := range touched {
		var h, b entity.Entity
		var hok, bok bool
		if head != nil {
			h, hok = head.HasEntity(id)
		}
		if base != nil {
			b, bok = base.HasEntity(id)
		}

		switch {
		case hok && bok && entitiesEqual(h, b):
			// touched but content identical: no change.
		case hok && !bok:
			d.changes[id] = Change{ID: id, Kind: ChangeCreated, Head: h}
		case !hok && bok:
			d.changes[id] = Change{ID: id, Kind: ChangeDeleted, Base: b}
		case hok && bok:
			d.changes[id] = Change{ID: id, Kind: ChangeModified, Aspect: classifyAspect(b, h), Base: b, Head: h}
		}
	}
	return d
}

// Modified returns every ChangeModified entry.
func (d *Diff) Modified() []Change { return d.filter(ChangeModified) }

// Created returns every ChangeCreated entry.
func (d *Diff) Created() []Change { return d.filter(ChangeCreated) }

// Deleted returns every ChangeDeleted entry.
func (d *Diff) Deleted() []Change { return d.filter(ChangeDeleted) }

func (d *Diff) filter(k ChangeKind) []Change {
	var out []Change
	for _, c := range d.changes {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	sortChanges(out)
	return out
}

func sortChanges(cs []Change) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].ID.Type != cs[j].ID.Type {
			return cs[i].ID.Type < cs[j].ID.Type
		}
		return cs[i].ID.Ref < cs[j].ID.Ref
	})
}

func entitiesEqual(a, b entity.Entity) bool {
	if !a.Tags().Equal(b.Tags()) || a.Visible() != b.Visible() {
		return false
	}
	switch av := a.(type) {
	case *entity.Node:
		bv, ok := b.(*entity.Node)
		return ok && av.Loc() == bv.Loc()
	case *entity.Way:
		bv, ok := b.(*entity.Way)
		return ok && idsEqual(av.Nodes(), bv.Nodes())
	case *entity.Relation:
		bv, ok := b.(*entity.Relation)
		return ok && membersEqual(av.Members(), bv.Members())
	case *entity.Changeset:
		_, ok := b.(*entity.Changeset)
		return ok
	}
	return false
}

func classifyAspect(b, h entity.Entity) AspectFlags {
	var flags AspectFlags
	if !h.Tags().Equal(b.Tags()) || h.Visible() != b.Visible() {
		flags |= AspectProperties
	}
	switch hv := h.(type) {
	case *entity.Node:
		if bv, ok := b.(*entity.Node); ok && hv.Loc() != bv.Loc() {
			flags |= AspectGeometry
		}
	case *entity.Way:
		if bv, ok := b.(*entity.Way); ok && !idsEqual(hv.Nodes(), bv.Nodes()) {
			flags |= AspectGeometry
		}
	case *entity.Relation:
		if bv, ok := b.(*entity.Relation); ok && !membersEqual(hv.Members(), bv.Members()) {
			flags |= AspectGeometry
		}
	}
	return flags
}

func idsEqual(a, b []entity.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func membersEqual(a, b []entity.Member) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
