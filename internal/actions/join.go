package actions

import (
	"sort"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
)

// JoinDisabled reports why Join cannot run over ids, or "" if it can
// (spec.md §4.5 join).
func JoinDisabled(g *graph.Graph, ids []entity.ID, cfg Config) string {
	if len(ids) < 2 {
		return "not_eligible"
	}
	ways := make([]*entity.Way, 0, len(ids))
	for _, id := range ids {
		e, ok := g.HasEntity(id)
		if !ok {
			return "not_eligible"
		}
		w, ok := e.(*entity.Way)
		if !ok {
			return "not_eligible"
		}
		ways = append(ways, w)
	}

	if _, ok := sequenceWays(ways); !ok {
		return "not_adjacent"
	}
	if relationSetsConflict(g, ids) {
		return "conflicting_relations"
	}
	if interestingTagsConflict(ways, cfg) {
		return "conflicting_tags"
	}
	if interiorNodesShared(ways) {
		return "paths_intersect"
	}
	return ""
}

// Join concatenates ids into one surviving way, rewires parent
// relations onto it, deletes the consumed ways, and collapses any
// single-member multipolygon parent into a simple area (spec.md §4.5
// join).
func Join(g *graph.Graph, ids []entity.ID, cfg Config) *graph.Graph {
	return g.Update(func(txn *graph.Txn) {
		ways := make([]*entity.Way, 0, len(ids))
		for _, id := range ids {
			e, ok := txn.HasEntity(id)
			if !ok {
				return
			}
			w, ok := e.(*entity.Way)
			if !ok {
				return
			}
			ways = append(ways, w)
		}

		ordered := orderJoinCandidates(ways)
		chain, ok := sequenceWays(ordered)
		if !ok {
			return
		}

		survivor := ordered[0]
		mergedTags := survivor.Tags().Clone()
		for _, w := range ordered[1:] {
			mergedTags = mergeJoinTags(mergedTags, w.Tags(), cfg)
		}

		survivorUpdated := survivor.Update(entity.WayPatch{Nodes: chain, Tags: mergedTags})
		txn.Replace(survivorUpdated)

		consumedParents := make(map[entity.ID]bool)
		for _, w := range ordered[1:] {
			for _, rID := range txn.ParentRelations(w.ID()) {
				consumedParents[rID] = true
			}
			for _, rID := range append([]entity.ID(nil), txn.ParentRelations(w.ID())...) {
				e, ok := txn.HasEntity(rID)
				if !ok {
					continue
				}
				r, ok := e.(*entity.Relation)
				if !ok {
					continue
				}
				txn.Replace(r.ReplaceMember(w.ID(), survivor.ID(), true))
			}
			txn.Remove(w.ID())
		}

		for rID := range consumedParents {
			collapseSingleMemberMultipolygon(txn, rID, survivor.ID())
		}
	})
}

// sequenceWays attempts to concatenate ways[0]'s nodes with the rest,
// reversing individual ways as needed so each new way continues the
// growing chain from either end; reports false if they don't form one
// end-to-end adjacent sequence.
func sequenceWays(ways []*entity.Way) ([]entity.ID, bool) {
	if len(ways) == 0 {
		return nil, false
	}
	chain := append([]entity.ID(nil), ways[0].Nodes()...)
	remaining := append([]*entity.Way(nil), ways[1:]...)

	for len(remaining) > 0 {
		progressed := false
		for i, w := range remaining {
			nodes := w.Nodes()
			if len(nodes) == 0 {
				continue
			}
			switch {
			case chain[len(chain)-1] == nodes[0]:
				chain = append(chain, nodes[1:]...)
			case chain[len(chain)-1] == nodes[len(nodes)-1]:
				chain = append(chain, reverseIDs(nodes)[1:]...)
			case chain[0] == nodes[len(nodes)-1]:
				chain = append(append([]entity.ID(nil), nodes[:len(nodes)-1]...), chain...)
			case chain[0] == nodes[0]:
				rev := reverseIDs(nodes)
				chain = append(append([]entity.ID(nil), rev[:len(rev)-1]...), chain...)
			default:
				continue
			}
			remaining = append(append([]*entity.Way(nil), remaining[:i]...), remaining[i+1:]...)
			progressed = true
			break
		}
		if !progressed {
			return nil, false
		}
	}
	return chain, true
}

func reverseIDs(ids []entity.ID) []entity.ID {
	out := make([]entity.ID, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

// orderJoinCandidates picks the survivor first: sided ways before
// unsided, persisted (non-local) ids before local ones, then ascending
// numeric id (spec.md §4.5 join).
func orderJoinCandidates(ways []*entity.Way) []*entity.Way {
	out := append([]*entity.Way(nil), ways...)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].IsSided(), out[j].IsSided()
		if si != sj {
			return si
		}
		li, lj := out[i].ID().Local(), out[j].ID().Local()
		if li != lj {
			return !li
		}
		return out[i].ID().Ref < out[j].ID().Ref
	})
	return out
}

// mergeJoinTags unions other's tags into base; on every conflict,
// `highway` included, base's existing non-empty value is kept.
// tagnosticRoadCombine only lifts JoinDisabled's highway conflict
// check; it never replaces base's value here.
func mergeJoinTags(base, other entity.Tags, cfg Config) entity.Tags {
	out := base.Clone()
	for k, v := range other {
		existing, ok := out[k]
		if !ok || existing == "" {
			out[k] = v
			continue
		}
		if existing == v {
			continue
		}
		if k == "highway" && cfg.TagnosticRoadCombine {
			continue // keep base's highway value; combine is permitted, not a forced override
		}
	}
	return out
}

// relationSetsConflict reports whether the ways' non-restriction,
// non-connectivity parent-relation sets differ — joining them would
// silently change what those relations mean.
func relationSetsConflict(g *graph.Graph, ids []entity.ID) bool {
	var reference map[entity.ID]bool
	for i, id := range ids {
		set := make(map[entity.ID]bool)
		for _, rID := range g.ParentRelations(id) {
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
		if i == 0 {
			reference = set
			continue
		}
		if len(set) != len(reference) {
			return true
		}
		for rID := range set {
			if !reference[rID] {
				return true
			}
		}
	}
	return false
}

func interestingTagsConflict(ways []*entity.Way, cfg Config) bool {
	if len(ways) < 2 {
		return false
	}
	base := ways[0].Tags()
	for _, w := range ways[1:] {
		for k, v := range w.Tags() {
			if k == "highway" && cfg.TagnosticRoadCombine {
				continue
			}
			if bv, ok := base[k]; ok && bv != "" && v != "" && bv != v {
				return true
			}
		}
	}
	return false
}

// interiorNodesShared reports whether any non-endpoint node of one way
// also appears in another — a path crossing at a non-shared point
// rather than joining cleanly end-to-end.
func interiorNodesShared(ways []*entity.Way) bool {
	interior := make(map[entity.ID]int)
	for _, w := range ways {
		nodes := w.Nodes()
		for i, id := range nodes {
			if i == 0 || i == len(nodes)-1 {
				continue
			}
			interior[id]++
			if interior[id] > 1 {
				return true
			}
		}
	}
	return false
}

// collapseSingleMemberMultipolygon converts a multipolygon relation
// left with exactly one member (the join survivor) into a plain area:
// its tags (minus `type`) merge onto the survivor, `area=yes` is added
// if not already implied, and the relation is deleted.
func collapseSingleMemberMultipolygon(txn *graph.Txn, relID, survivorID entity.ID) {
	e, ok := txn.HasEntity(relID)
	if !ok {
		return
	}
	r, ok := e.(*entity.Relation)
	if !ok || !r.IsMultipolygon() || len(r.Members()) != 1 {
		return
	}
	if r.Members()[0].ID != survivorID {
		return
	}
	se, ok := txn.HasEntity(survivorID)
	if !ok {
		return
	}
	w, ok := se.(*entity.Way)
	if !ok {
		return
	}
	tags := w.Tags().Merge(r.Tags())
	delete(tags, "type")
	w2 := w.Update(entity.WayPatch{Tags: tags})
	if !w2.IsArea() {
		t := w2.Tags().Clone()
		t["area"] = "yes"
		w2 = w2.Update(entity.WayPatch{Tags: t})
	}
	txn.Replace(w2)
	txn.Remove(relID)
}
