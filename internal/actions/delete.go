package actions

import (
	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
)

// DeleteNode removes id from every parent way and relation, then drops
// it. When doDeleteDegenerate is true, a parent left degenerate by the
// removal is itself recursively deleted (spec.md §4.5 deleteNode).
func DeleteNode(g *graph.Graph, id entity.ID, doDeleteDegenerate bool) *graph.Graph {
	return g.Update(func(txn *graph.Txn) {
		degenerateParents := detachAndDeleteNode(txn, id)
		if doDeleteDegenerate {
			drainDeleteQueue(txn, degenerateParents, false)
		}
	})
}

// DeleteWay removes id from its parent relations (recursing into
// degenerate parents), drops the way, then drops any child node left
// with no remaining parents, no point-suggesting tags, and nothing
// interesting about it; other orphaned vertices are retained as
// standalone points (spec.md §4.5 deleteWay).
func DeleteWay(g *graph.Graph, id entity.ID) *graph.Graph {
	return g.Update(func(txn *graph.Txn) {
		drainDeleteQueue(txn, []entity.ID{id}, false)
	})
}

// DeleteRelation detaches id from its parent relations (recursing),
// empties its members, then deletes each former member left fully
// orphaned and uninteresting, unless allowUntaggedMembers keeps it
// around unreferenced (spec.md §4.5 deleteRelation).
func DeleteRelation(g *graph.Graph, id entity.ID, doDeleteDegenerate, allowUntaggedMembers bool) *graph.Graph {
	return g.Update(func(txn *graph.Txn) {
		degenerateParents, orphanCandidates := processOne(txn, id, allowUntaggedMembers)
		if doDeleteDegenerate {
			drainDeleteQueue(txn, degenerateParents, allowUntaggedMembers)
		}
		drainOrphanQueue(txn, orphanCandidates, allowUntaggedMembers)
	})
}

// DeleteMultiple dispatches ids by type in turn, re-checking existence
// at each step since an earlier deletion may already have removed a
// later id as a dependent (spec.md §4.5 deleteMultiple).
func DeleteMultiple(g *graph.Graph, ids []entity.ID, doDeleteDegenerate, allowUntaggedMembers bool) *graph.Graph {
	return g.Update(func(txn *graph.Txn) {
		for _, id := range ids {
			e, ok := txn.HasEntity(id)
			if !ok {
				continue
			}
			switch e.(type) {
			case *entity.Node:
				degenerateParents := detachAndDeleteNode(txn, id)
				if doDeleteDegenerate {
					drainDeleteQueue(txn, degenerateParents, allowUntaggedMembers)
				}
			case *entity.Way:
				drainDeleteQueue(txn, []entity.ID{id}, allowUntaggedMembers)
			case *entity.Relation:
				degenerateParents, orphanCandidates := processOne(txn, id, allowUntaggedMembers)
				if doDeleteDegenerate {
					drainDeleteQueue(txn, degenerateParents, allowUntaggedMembers)
				}
				drainOrphanQueue(txn, orphanCandidates, allowUntaggedMembers)
			}
		}
	})
}

// detachAndDeleteNode unconditionally removes id from every parent
// way/relation and deletes it, returning parents left degenerate by
// the removal.
func detachAndDeleteNode(txn *graph.Txn, id entity.ID) []entity.ID {
	var degenerate []entity.ID
	for _, wID := range append([]entity.ID(nil), txn.ParentWays(id)...) {
		e, ok := txn.HasEntity(wID)
		if !ok {
			continue
		}
		w, ok := e.(*entity.Way)
		if !ok {
			continue
		}
		w2 := w.RemoveNode(id)
		txn.Replace(w2)
		if w2.IsDegenerate() {
			degenerate = append(degenerate, wID)
		}
	}
	for _, rID := range append([]entity.ID(nil), txn.ParentRelations(id)...) {
		e, ok := txn.HasEntity(rID)
		if !ok {
			continue
		}
		r, ok := e.(*entity.Relation)
		if !ok {
			continue
		}
		r2 := r.RemoveMembersWithID(id)
		txn.Replace(r2)
		if r2.IsDegenerate() {
			degenerate = append(degenerate, rID)
		}
	}
	txn.Remove(id)
	return degenerate
}

// processOne unconditionally deletes id (assumed a Way or Relation
// already decided for removal), returning parents left degenerate by
// the detachment (to keep deleting) and former children/members now
// eligible for orphan cleanup (only deleted if they turn out to still
// be unreferenced and uninteresting once settled).
func processOne(txn *graph.Txn, id entity.ID, allowUntaggedMembers bool) (degenerateParents, orphanCandidates []entity.ID) {
	e, ok := txn.HasEntity(id)
	if !ok {
		return nil, nil
	}
	switch v := e.(type) {
	case *entity.Way:
		orphanCandidates = append([]entity.ID(nil), v.Nodes()...)
		for _, rID := range append([]entity.ID(nil), txn.ParentRelations(id)...) {
			re, ok := txn.HasEntity(rID)
			if !ok {
				continue
			}
			r, ok := re.(*entity.Relation)
			if !ok {
				continue
			}
			r2 := r.RemoveMembersWithID(id)
			txn.Replace(r2)
			if r2.IsDegenerate() {
				degenerateParents = append(degenerateParents, rID)
			}
		}
		txn.Remove(id)
		return degenerateParents, orphanCandidates

	case *entity.Relation:
		members := v.Members()
		for _, rID := range append([]entity.ID(nil), txn.ParentRelations(id)...) {
			re, ok := txn.HasEntity(rID)
			if !ok {
				continue
			}
			pr, ok := re.(*entity.Relation)
			if !ok {
				continue
			}
			pr2 := pr.RemoveMembersWithID(id)
			txn.Replace(pr2)
			if pr2.IsDegenerate() {
				degenerateParents = append(degenerateParents, rID)
			}
		}
		txn.Replace(v.Update(entity.RelationPatch{Members: []entity.Member{}}))
		txn.Remove(id)
		if !allowUntaggedMembers {
			for _, m := range members {
				orphanCandidates = append(orphanCandidates, m.ID)
			}
		}
		return degenerateParents, orphanCandidates
	}
	return nil, nil
}

// drainDeleteQueue unconditionally deletes every id in queue — each is
// assumed already decided for removal (a degenerate parent cascade) —
// discovering further degenerate parents (always re-queued) and
// orphan candidates (checked only once every forced deletion has
// settled). An explicit work queue bounds stack depth regardless of
// cascade length (spec.md §9).
func drainDeleteQueue(txn *graph.Txn, queue []entity.ID, allowUntaggedMembers bool) {
	seen := make(map[entity.ID]bool)
	var orphanCandidates []entity.ID
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		more, orphans := processOne(txn, id, allowUntaggedMembers)
		queue = append(queue, more...)
		orphanCandidates = append(orphanCandidates, orphans...)
	}
	drainOrphanQueue(txn, orphanCandidates, allowUntaggedMembers)
}

// drainOrphanQueue deletes every candidate left with no remaining
// parent and nothing interesting about it; a way or relation deleted
// this way can surface further orphan candidates of its own.
func drainOrphanQueue(txn *graph.Txn, queue []entity.ID, allowUntaggedMembers bool) {
	seen := make(map[entity.ID]bool)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		queue = append(queue, tryDeleteOrphan(txn, id, allowUntaggedMembers)...)
	}
}

func tryDeleteOrphan(txn *graph.Txn, id entity.ID, allowUntaggedMembers bool) []entity.ID {
	e, ok := txn.HasEntity(id)
	if !ok {
		return nil
	}
	if len(txn.ParentWays(id)) > 0 || len(txn.ParentRelations(id)) > 0 {
		return nil
	}

	var interesting bool
	switch v := e.(type) {
	case *entity.Node:
		interesting = v.HasInterestingTags()
	case *entity.Way:
		interesting = v.HasInterestingTags()
	case *entity.Relation:
		interesting = v.HasInterestingTags()
	}
	if interesting {
		return nil
	}

	if _, ok := e.(*entity.Node); ok {
		txn.Remove(id)
		return nil
	}
	_, orphanCandidates := processOne(txn, id, allowUntaggedMembers)
	return orphanCandidates
}
