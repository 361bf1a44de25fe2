package graph

import "github.com/osmtopo/osmtopo/internal/entity"

var rebaseOrder = map[entity.Kind]int{
	entity.KindNode:     0,
	entity.KindWay:      1,
	entity.KindRelation: 2,
}

// Rebase merges newly downloaded entities into the base layer shared by
// every graph in stack, per spec.md §4.2's three-step algorithm. force
// causes an already-present base entity to be overwritten; otherwise
// only ids absent from base are inserted.
func Rebase(entities []entity.Entity, stack []*Graph, force bool) {
	if len(entities) == 0 || len(stack) == 0 {
		return
	}
	base := stack[0].base

	ordered := make([]entity.Entity, len(entities))
	copy(ordered, entities)
	stableSortByKind(ordered)

	inserted := make([]entity.Entity, 0, len(ordered))
	for _, e := range ordered {
		if !e.Visible() {
			continue
		}
		id := e.ID()
		base.mu.Lock()
		_, present := base.entities[id]
		if present && !force {
			base.mu.Unlock()
			continue
		}
		var prev entity.Entity
		if present {
			prev = base.entities[id]
		}
		base.entities[id] = e
		base.mu.Unlock()

		refreshBaseParentIndex(base, prev, e)
		inserted = append(inserted, e)
	}
	if len(inserted) == 0 {
		return
	}

	restore := nodesNeedingRestoration(inserted, stack)

	for _, g := range stack {
		for id := range restore {
			if entry, ok := g.local.entities[id]; ok && entry.deleted {
				delete(g.local.entities, id)
			}
		}
		unifyParentIndices(g)
		refreshTransitiveParents(g, inserted)
	}
}

func stableSortByKind(entities []entity.Entity) {
	// insertion sort: entity counts per rebase batch are small, and
	// stability (preserving caller order within a Kind) matters more
	// than raw speed here.
	for i := 1; i < len(entities); i++ {
		for j := i; j > 0 && rebaseOrder[entities[j].ID().Type] < rebaseOrder[entities[j-1].ID().Type]; j-- {
			entities[j], entities[j-1] = entities[j-1], entities[j]
		}
	}
}

// refreshBaseParentIndex updates base's parentWays/parentRels for the
// transition from prev (nil if this is a newborn id) to cur.
func refreshBaseParentIndex(base *baseLayer, prev, cur entity.Entity) {
	switch c := cur.(type) {
	case *entity.Way:
		var prevNodes []entity.ID
		if pw, ok := prev.(*entity.Way); ok {
			prevNodes = pw.Nodes()
		}
		removed, added := diffIDs(prevNodes, c.Nodes())
		base.mu.Lock()
		for _, n := range removed {
			base.parentWays[n] = removeID(base.parentWays[n], c.ID())
		}
		for _, n := range added {
			base.parentWays[n] = appendIDIfAbsent(base.parentWays[n], c.ID())
		}
		base.mu.Unlock()

	case *entity.Relation:
		var prevIDs []entity.ID
		if pr, ok := prev.(*entity.Relation); ok {
			for _, m := range pr.Members() {
				prevIDs = append(prevIDs, m.ID)
			}
		}
		var curIDs []entity.ID
		for _, m := range c.Members() {
			curIDs = append(curIDs, m.ID)
		}
		removed, added := diffIDs(prevIDs, curIDs)
		base.mu.Lock()
		for _, id := range removed {
			base.parentRels[id] = removeID(base.parentRels[id], c.ID())
		}
		for _, id := range added {
			base.parentRels[id] = appendIDIfAbsent(base.parentRels[id], c.ID())
		}
		base.mu.Unlock()
	}
}

func removeID(ids []entity.ID, target entity.ID) []entity.ID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func appendIDIfAbsent(ids []entity.ID, target entity.ID) []entity.ID {
	for _, id := range ids {
		if id == target {
			return ids
		}
	}
	return append(ids, target)
}

// nodesNeedingRestoration finds node ids referenced by a newly inserted
// Way that some graph in the stack has locally deleted (spec.md §3's
// invariant: a node can't stay deleted once upstream re-references it).
func nodesNeedingRestoration(inserted []entity.Entity, stack []*Graph) map[entity.ID]bool {
	restore := make(map[entity.ID]bool)
	for _, e := range inserted {
		w, ok := e.(*entity.Way)
		if !ok {
			continue
		}
		for _, n := range w.Nodes() {
			for _, g := range stack {
				if entry, ok := g.local.entities[n]; ok && entry.deleted {
					restore[n] = true
				}
			}
		}
	}
	return restore
}

// unifyParentIndices reconciles each locally copy-on-written parent-set
// entry with base, adding any base parent whose owning way/relation has
// not itself been locally edited out from under it.
func unifyParentIndices(g *Graph) {
	g.base.mu.RLock()
	defer g.base.mu.RUnlock()

	for nodeID, ids := range g.local.parentWays {
		for _, wayID := range g.base.parentWays[nodeID] {
			if _, edited := g.local.entities[wayID]; edited {
				continue
			}
			g.local.parentWays[nodeID] = appendIDIfAbsent(ids, wayID)
			ids = g.local.parentWays[nodeID]
		}
	}
	for memberID, ids := range g.local.parentRels {
		for _, relID := range g.base.parentRels[memberID] {
			if _, edited := g.local.entities[relID]; edited {
				continue
			}
			g.local.parentRels[memberID] = appendIDIfAbsent(ids, relID)
			ids = g.local.parentRels[memberID]
		}
	}
}

// refreshTransitiveParents recomputes derived geometry for the
// transitive closure of parents of newly rebased entities, via an
// explicit work queue rather than recursion (spec.md §9).
func refreshTransitiveParents(g *Graph, inserted []entity.Entity) {
	seen := make(map[entity.ID]bool)
	queue := make([]entity.ID, 0, len(inserted))
	for _, e := range inserted {
		id := e.ID()
		if !seen[id] {
			seen[id] = true
			queue = append(queue, id)
		}
	}

	affected := make([]entity.ID, 0, len(queue))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		affected = append(affected, id)

		for _, wayID := range g.ParentWays(id) {
			if !seen[wayID] {
				seen[wayID] = true
				queue = append(queue, wayID)
			}
		}
		for _, relID := range g.ParentRelations(id) {
			if !seen[relID] {
				seen[relID] = true
				queue = append(queue, relID)
			}
		}
	}

	g.refreshGeometry(affected)
}
