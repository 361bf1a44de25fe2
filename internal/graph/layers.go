package graph

import (
	"sync"

	"github.com/osmtopo/osmtopo/internal/entity"
)

// baseLayer is the shared, append-only downloaded-data layer (spec.md
// §3). It is mutated only by Rebase, and shared by every Graph derived
// from a common ancestor — hence the RWMutex, since a rebase on one
// graph's base is visible to every sibling in its edit stack.
type baseLayer struct {
	mu         sync.RWMutex
	entities   map[entity.ID]entity.Entity
	parentWays map[entity.ID][]entity.ID
	parentRels map[entity.ID][]entity.ID
}

func newBaseLayer() *baseLayer {
	return &baseLayer{
		entities:   make(map[entity.ID]entity.Entity),
		parentWays: make(map[entity.ID][]entity.ID),
		parentRels: make(map[entity.ID][]entity.ID),
	}
}

// localEntry is a locally replaced entity, or a tombstone recording a
// local deletion of something that exists in base.
type localEntry struct {
	entity  entity.Entity
	deleted bool
}

// localLayer is the shallow-cloned edit overlay each Graph in an edit
// stack owns independently (spec.md §3). Parent-index entries are
// copy-on-write: a key is present here only once something has touched
// that id, at which point it holds the full (local ∪ base) parent set.
type localLayer struct {
	entities   map[entity.ID]localEntry
	parentWays map[entity.ID][]entity.ID
	parentRels map[entity.ID][]entity.ID
}

func newLocalLayer() *localLayer {
	return &localLayer{
		entities:   make(map[entity.ID]localEntry),
		parentWays: make(map[entity.ID][]entity.ID),
		parentRels: make(map[entity.ID][]entity.ID),
	}
}

// clone returns a shallow copy: new maps, same entity/slice values. The
// copy-on-write discipline in Graph's mutators means nothing written
// through the clone is visible to l, and vice versa.
func (l *localLayer) clone() *localLayer {
	c := newLocalLayer()
	for id, e := range l.entities {
		c.entities[id] = e
	}
	for id, ids := range l.parentWays {
		c.parentWays[id] = ids
	}
	for id, ids := range l.parentRels {
		c.parentRels[id] = ids
	}
	return c
}
