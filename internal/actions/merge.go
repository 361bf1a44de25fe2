package actions

import (
	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
)

// Merge folds each of pointIDs into targetID: tags union-merge onto
// the target, the point's parent relations are rewritten to reference
// the target, and the point is either dropped or — when the target
// has an uninteresting child vertex of its own, otherwise unreferenced
// — moved into that vertex's position to preserve the point's history
// (spec.md §4.5 merge).
func Merge(g *graph.Graph, pointIDs []entity.ID, targetID entity.ID) *graph.Graph {
	return g.Update(func(txn *graph.Txn) {
		for _, pID := range pointIDs {
			mergePoint(txn, pID, targetID)
		}
		removeRedundantAreaTag(txn, targetID)
	})
}

func mergePoint(txn *graph.Txn, pID, targetID entity.ID) {
	pe, ok := txn.HasEntity(pID)
	if !ok {
		return
	}
	p, ok := pe.(*entity.Node)
	if !ok {
		return
	}

	mergeTagsOnto(txn, targetID, p.Tags())

	for _, rID := range append([]entity.ID(nil), txn.ParentRelations(pID)...) {
		e, ok := txn.HasEntity(rID)
		if !ok {
			continue
		}
		r, ok := e.(*entity.Relation)
		if !ok {
			continue
		}
		txn.Replace(r.ReplaceMember(pID, targetID, true))
	}

	te, ok := txn.HasEntity(targetID)
	if ok {
		if w, ok := te.(*entity.Way); ok {
			if vertexID, found := findUninterestingVertex(txn, w); found {
				if ve, ok := txn.HasEntity(vertexID); ok {
					loc := ve.(*entity.Node).Loc()
					txn.Replace(p.Update(entity.NodePatch{Loc: &loc}))
				}
				txn.Replace(w.ReplaceNode(vertexID, pID))
				txn.Remove(vertexID)
				return
			}
		}
	}
	txn.Remove(pID)
}

func mergeTagsOnto(txn *graph.Txn, targetID entity.ID, tags entity.Tags) {
	e, ok := txn.HasEntity(targetID)
	if !ok {
		return
	}
	switch v := e.(type) {
	case *entity.Node:
		txn.Replace(v.MergeTags(tags))
	case *entity.Way:
		txn.Replace(v.MergeTags(tags))
	case *entity.Relation:
		txn.Replace(v.MergeTags(tags))
	}
}

// findUninterestingVertex returns a node of w that carries nothing
// interesting, belongs to no relation, and has no other parent way —
// safe to retire in favor of a merged-in point taking its place.
func findUninterestingVertex(txn *graph.Txn, w *entity.Way) (entity.ID, bool) {
	for _, id := range w.Nodes() {
		e, ok := txn.HasEntity(id)
		if !ok {
			continue
		}
		n, ok := e.(*entity.Node)
		if !ok || n.HasInterestingTags() {
			continue
		}
		if len(txn.ParentRelations(id)) > 0 {
			continue
		}
		onlyThisWay := true
		for _, pw := range txn.ParentWays(id) {
			if pw != w.ID() {
				onlyThisWay = false
				break
			}
		}
		if onlyThisWay {
			return id, true
		}
	}
	return entity.ID{}, false
}

// removeRedundantAreaTag drops an explicit `area=yes` once the rest of
// the tag set already implies area on its own (spec.md §4.5 merge).
func removeRedundantAreaTag(txn *graph.Txn, targetID entity.ID) {
	e, ok := txn.HasEntity(targetID)
	if !ok {
		return
	}
	w, ok := e.(*entity.Way)
	if !ok {
		return
	}
	if w.Tags()["area"] != "yes" || !w.Tags().ImpliesArea() {
		return
	}
	t := w.Tags().Clone()
	delete(t, "area")
	txn.Replace(w.Update(entity.WayPatch{Tags: t}))
}
