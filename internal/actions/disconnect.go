package actions

import (
	"sort"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
)

// DisconnectDisabled reports why Disconnect cannot run at nodeID, or ""
// if it can (spec.md §4.5 disconnect).
func DisconnectDisabled(g *graph.Graph, nodeID entity.ID) string {
	ways := g.ParentWays(nodeID)
	if len(ways) < 2 {
		return "not_connected"
	}
	if sharedNonAdvisoryRelation(g, ways) {
		return "relation"
	}
	return ""
}

// sharedNonAdvisoryRelation reports whether two of the given ways share
// a parent relation that is neither a restriction nor a connectivity
// relation — disconnect would silently corrupt that relation's meaning.
func sharedNonAdvisoryRelation(g *graph.Graph, ways []entity.ID) bool {
	relsOf := make(map[entity.ID]map[entity.ID]bool, len(ways))
	for _, wID := range ways {
		set := make(map[entity.ID]bool)
		for _, rID := range g.ParentRelations(wID) {
			e, ok := g.HasEntity(rID)
			if !ok {
				continue
			}
			r, ok := e.(*entity.Relation)
			if !ok || r.IsRestriction() || r.IsConnectivity() {
				continue
			}
			set[rID] = true
		}
		relsOf[wID] = set
	}
	for i, a := range ways {
		for _, b := range ways[i+1:] {
			for rID := range relsOf[a] {
				if relsOf[b][rID] {
					return true
				}
			}
		}
	}
	return false
}

// Disconnect splits nodeID apart: the first candidate way (by sided
// anchoring, then persisted-over-local id preference) keeps the
// original node; every other way is rewired onto one freshly created
// node at the same location and tags (spec.md §4.5 disconnect).
func Disconnect(g *graph.Graph, nodeID entity.ID, cfg Config) *graph.Graph {
	return g.Update(func(txn *graph.Txn) {
		orig := must(txn, nodeID)
		n, ok := orig.(*entity.Node)
		if !ok {
			return
		}

		ways := orderDisconnectCandidates(txn, nodeID, append([]entity.ID(nil), txn.ParentWays(nodeID)...))
		if len(ways) < 2 {
			return
		}

		newNode := entity.NewNode(cfg.newNodeID(), n.Loc(), n.Tags())
		txn.Replace(newNode)

		for _, wID := range ways[1:] {
			e, ok := txn.HasEntity(wID)
			if !ok {
				continue
			}
			w, ok := e.(*entity.Way)
			if !ok {
				continue
			}
			txn.Replace(w.ReplaceNode(nodeID, newNode.ID()))
		}
	})
}

// orderDisconnectCandidates ranks ways so that a sided way anchoring
// nodeID as its start/end sorts first, then persisted (non-local) ids
// before local ones, then ascending numeric id.
func orderDisconnectCandidates(txn *graph.Txn, nodeID entity.ID, ways []entity.ID) []entity.ID {
	type ranked struct {
		id     entity.ID
		anchor bool
	}
	rs := make([]ranked, 0, len(ways))
	for _, wID := range ways {
		e, ok := txn.HasEntity(wID)
		if !ok {
			continue
		}
		w, ok := e.(*entity.Way)
		if !ok {
			continue
		}
		anchor := w.IsSided() && (w.First() == nodeID || w.Last() == nodeID)
		rs = append(rs, ranked{id: wID, anchor: anchor})
	}
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].anchor != rs[j].anchor {
			return rs[i].anchor
		}
		li, lj := rs[i].id.Local(), rs[j].id.Local()
		if li != lj {
			return !li
		}
		return rs[i].id.Ref < rs[j].id.Ref
	})
	out := make([]entity.ID, len(rs))
	for i, r := range rs {
		out[i] = r.id
	}
	return out
}
