// Package graph implements the copy-on-write layered topology graph:
// a shared, append-only base layer of downloaded entities, plus a
// per-branch local overlay of in-memory edits (spec.md §4.2).
package graph

import (
	"fmt"
	"sync"

	"github.com/osmtopo/osmtopo/internal/entity"
)

// Graph is one point in an edit history: a base layer shared with its
// whole ancestor/descendant stack, a local overlay private to this
// branch, and a link to the graph it was derived from.
type Graph struct {
	base   *baseLayer
	local  *localLayer
	parent *Graph

	// dirty tracks ids touched by Replace/Remove/Revert since this graph
	// was branched off its parent; Commit refreshes derived geometry for
	// exactly this set.
	dirty map[entity.ID]bool

	childNodesMu    sync.Mutex
	childNodesCache map[entity.ID][]*entity.Node
}

// New returns an empty graph with no base data and no history.
func New() *Graph {
	return &Graph{base: newBaseLayer(), local: newLocalLayer(), dirty: make(map[entity.ID]bool)}
}

// NewChild branches a fresh working copy off g: same base, a clone of
// g's local overlay (so prior commits in this branch stay visible), and
// g recorded as predecessor.
func (g *Graph) NewChild() *Graph {
	return &Graph{
		base:   g.base,
		local:  g.local.clone(),
		parent: g,
		dirty:  make(map[entity.ID]bool),
	}
}

// Parent returns the graph this one was derived from, or nil for a root.
func (g *Graph) Parent() *Graph { return g.parent }

// HasEntity resolves id against the local overlay, falling back to
// base. A local tombstone shadows a base entry.
func (g *Graph) HasEntity(id entity.ID) (entity.Entity, bool) {
	if le, ok := g.local.entities[id]; ok {
		if le.deleted {
			return nil, false
		}
		return le.entity, true
	}
	return g.baseEntity(id)
}

func (g *Graph) baseEntity(id entity.ID) (entity.Entity, bool) {
	g.base.mu.RLock()
	defer g.base.mu.RUnlock()
	e, ok := g.base.entities[id]
	return e, ok
}

// Entity resolves id, failing with ErrEntityNotFound otherwise (spec.md
// §4.2 entity(id)).
func (g *Graph) Entity(id entity.ID) (entity.Entity, error) {
	e, ok := g.HasEntity(id)
	if !ok {
		return nil, fmt.Errorf("graph: %w: %s", ErrEntityNotFound, id)
	}
	return e, nil
}

// ParentWays returns the snapshot set of ways referencing id.
func (g *Graph) ParentWays(id entity.ID) []entity.ID {
	if ids, ok := g.local.parentWays[id]; ok {
		return ids
	}
	g.base.mu.RLock()
	defer g.base.mu.RUnlock()
	return g.base.parentWays[id]
}

// ParentRelations returns the snapshot set of relations referencing id.
func (g *Graph) ParentRelations(id entity.ID) []entity.ID {
	if ids, ok := g.local.parentRels[id]; ok {
		return ids
	}
	g.base.mu.RLock()
	defer g.base.mu.RUnlock()
	return g.base.parentRels[id]
}

// ChildNodes returns the memoized ordered Node entities corresponding
// to w.Nodes() (spec.md §4.2 childNodes).
func (g *Graph) ChildNodes(w *entity.Way) ([]*entity.Node, error) {
	g.childNodesMu.Lock()
	defer g.childNodesMu.Unlock()

	if g.childNodesCache == nil {
		g.childNodesCache = make(map[entity.ID][]*entity.Node)
	}
	if cached, ok := g.childNodesCache[w.ID()]; ok {
		return cached, nil
	}

	nodes := make([]*entity.Node, len(w.Nodes()))
	for i, id := range w.Nodes() {
		e, err := g.Entity(id)
		if err != nil {
			return nil, fmt.Errorf("graph: childNodes %s: %w", w.ID(), err)
		}
		n, ok := e.(*entity.Node)
		if !ok {
			return nil, fmt.Errorf("graph: childNodes %s: %s is not a node", w.ID(), id)
		}
		nodes[i] = n
	}
	g.childNodesCache[w.ID()] = nodes
	return nodes, nil
}

func (g *Graph) invalidateChildNodes(id entity.ID) {
	g.childNodesMu.Lock()
	delete(g.childNodesCache, id)
	g.childNodesMu.Unlock()
}

// Replace stores e as the current value of e.ID(), maintaining parent
// indices for a Way's node set or Relation's member set per the
// set-delta algorithm (spec.md §4.2).
func (g *Graph) Replace(e entity.Entity) {
	id := e.ID()
	prev, hadPrev := g.HasEntity(id)
	g.local.entities[id] = localEntry{entity: e}
	g.dirty[id] = true
	g.invalidateChildNodes(id)

	switch cur := e.(type) {
	case *entity.Way:
		var prevNodes []entity.ID
		if hadPrev {
			if pw, ok := prev.(*entity.Way); ok {
				prevNodes = pw.Nodes()
			}
		}
		g.applyWayNodeDelta(id, prevNodes, cur.Nodes())
	case *entity.Relation:
		var prevMembers []entity.Member
		if hadPrev {
			if pr, ok := prev.(*entity.Relation); ok {
				prevMembers = pr.Members()
			}
		}
		g.applyRelationMemberDelta(id, prevMembers, cur.Members())
	}
}

// Remove marks id deleted in the local overlay, retiring it from its
// former parents' indices.
func (g *Graph) Remove(id entity.ID) {
	prev, hadPrev := g.HasEntity(id)
	g.local.entities[id] = localEntry{deleted: true}
	g.dirty[id] = true
	g.invalidateChildNodes(id)
	if !hadPrev {
		return
	}
	switch pv := prev.(type) {
	case *entity.Way:
		g.applyWayNodeDelta(id, pv.Nodes(), nil)
	case *entity.Relation:
		g.applyRelationMemberDelta(id, pv.Members(), nil)
	}
}

// Revert drops id's local override (replacement or tombstone), falling
// back to base, and repairs parent indices for the difference between
// what local held and what base now resolves to.
func (g *Graph) Revert(id entity.ID) {
	local, hadLocal := g.local.entities[id]
	if !hadLocal {
		return
	}

	var prevNodes []entity.ID
	var prevMembers []entity.Member
	if !local.deleted {
		switch pv := local.entity.(type) {
		case *entity.Way:
			prevNodes = pv.Nodes()
		case *entity.Relation:
			prevMembers = pv.Members()
		}
	}

	delete(g.local.entities, id)
	delete(g.dirty, id)
	g.invalidateChildNodes(id)

	var curNodes []entity.ID
	var curMembers []entity.Member
	if base, ok := g.baseEntity(id); ok {
		switch bv := base.(type) {
		case *entity.Way:
			curNodes = bv.Nodes()
		case *entity.Relation:
			curMembers = bv.Members()
		}
	}
	g.applyWayNodeDelta(id, prevNodes, curNodes)
	g.applyRelationMemberDelta(id, prevMembers, curMembers)
}

// LocalIDs returns every id this graph's local overlay has touched —
// replaced or deleted — since it diverged from base. internal/diff
// uses this to compare two graphs sharing a base without scanning it.
func (g *Graph) LocalIDs() []entity.ID {
	ids := make([]entity.ID, 0, len(g.local.entities))
	for id := range g.local.entities {
		ids = append(ids, id)
	}
	return ids
}

// Load bulk-replaces entities in the working copy, used to restore a
// snapshot from history (spec.md §4.2 load).
func (g *Graph) Load(entities []entity.Entity) {
	for _, e := range entities {
		g.Replace(e)
	}
}
