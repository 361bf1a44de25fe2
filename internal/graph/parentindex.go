package graph

import "github.com/osmtopo/osmtopo/internal/entity"

// touchParentWays copies the node id's parent-way set from (local ∪
// base) into local, if not already copy-on-written, and returns it.
func (g *Graph) touchParentWays(id entity.ID) []entity.ID {
	if ids, ok := g.local.parentWays[id]; ok {
		return ids
	}
	g.base.mu.RLock()
	base := g.base.parentWays[id]
	g.base.mu.RUnlock()
	cp := append([]entity.ID(nil), base...)
	g.local.parentWays[id] = cp
	return cp
}

func (g *Graph) touchParentRels(id entity.ID) []entity.ID {
	if ids, ok := g.local.parentRels[id]; ok {
		return ids
	}
	g.base.mu.RLock()
	base := g.base.parentRels[id]
	g.base.mu.RUnlock()
	cp := append([]entity.ID(nil), base...)
	g.local.parentRels[id] = cp
	return cp
}

func (g *Graph) addParentWay(nodeID, wayID entity.ID) {
	ids := g.touchParentWays(nodeID)
	for _, existing := range ids {
		if existing == wayID {
			return
		}
	}
	g.local.parentWays[nodeID] = append(ids, wayID)
}

func (g *Graph) removeParentWay(nodeID, wayID entity.ID) {
	ids := g.touchParentWays(nodeID)
	out := make([]entity.ID, 0, len(ids))
	for _, existing := range ids {
		if existing != wayID {
			out = append(out, existing)
		}
	}
	g.local.parentWays[nodeID] = out
}

func (g *Graph) addParentRel(memberID, relID entity.ID) {
	ids := g.touchParentRels(memberID)
	for _, existing := range ids {
		if existing == relID {
			return
		}
	}
	g.local.parentRels[memberID] = append(ids, relID)
}

func (g *Graph) removeParentRel(memberID, relID entity.ID) {
	ids := g.touchParentRels(memberID)
	out := make([]entity.ID, 0, len(ids))
	for _, existing := range ids {
		if existing != relID {
			out = append(out, existing)
		}
	}
	g.local.parentRels[memberID] = out
}

// idSet builds a membership set, used to diff two id multisets down to
// their distinct members (spec.md §4.2: "treated as multisets of
// unique ids").
func idSet(ids []entity.ID) map[entity.ID]bool {
	s := make(map[entity.ID]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

// diffIDs returns the ids present only in prev (removed) and only in
// cur (added).
func diffIDs(prev, cur []entity.ID) (removed, added []entity.ID) {
	prevSet, curSet := idSet(prev), idSet(cur)
	for id := range prevSet {
		if !curSet[id] {
			removed = append(removed, id)
		}
	}
	for id := range curSet {
		if !prevSet[id] {
			added = append(added, id)
		}
	}
	return removed, added
}

// applyWayNodeDelta implements spec.md §4.2's parent-index maintenance
// algorithm for a way edit from prevNodes to curNodes.
func (g *Graph) applyWayNodeDelta(wayID entity.ID, prevNodes, curNodes []entity.ID) {
	removed, added := diffIDs(prevNodes, curNodes)
	for _, n := range removed {
		g.removeParentWay(n, wayID)
	}
	for _, n := range added {
		g.addParentWay(n, wayID)
	}
}

// applyRelationMemberDelta is the analogous rule for a relation's
// member-id set.
func (g *Graph) applyRelationMemberDelta(relID entity.ID, prevMembers, curMembers []entity.Member) {
	prevIDs := make([]entity.ID, len(prevMembers))
	for i, m := range prevMembers {
		prevIDs[i] = m.ID
	}
	curIDs := make([]entity.ID, len(curMembers))
	for i, m := range curMembers {
		curIDs[i] = m.ID
	}
	removed, added := diffIDs(prevIDs, curIDs)
	for _, id := range removed {
		g.removeParentRel(id, relID)
	}
	for _, id := range added {
		g.addParentRel(id, relID)
	}
}
