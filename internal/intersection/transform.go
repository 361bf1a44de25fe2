package intersection

import (
	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
)

// step1PruneRestrictions deletes degenerate or incomplete restriction
// relations from the working copy and returns the survivors.
func step1PruneRestrictions(txn *graph.Txn, restrictions []*entity.Relation) []*entity.Relation {
	kept := make([]*entity.Relation, 0, len(restrictions))
	for _, r := range restrictions {
		if r.IsDegenerate() || !r.IsComplete(txn) {
			txn.Remove(r.ID())
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// step2ReverseNegativeOneways reverses every oneway=-1 road so that
// "forward" always means first-to-last within the virtual graph.
func step2ReverseNegativeOneways(txn *graph.Txn, roadWays map[entity.ID]bool) {
	for wID := range roadWays {
		e, ok := txn.HasEntity(wID)
		if !ok {
			continue
		}
		w, ok := e.(*entity.Way)
		if !ok || w.Tags()["oneway"] != "-1" {
			continue
		}
		txn.Replace(reverseWay(w))
	}
}

func reverseWay(w *entity.Way) *entity.Way {
	nodes := w.Nodes()
	rev := make([]entity.ID, len(nodes))
	for i, n := range nodes {
		rev[len(nodes)-1-i] = n
	}
	tags := w.Tags().Clone()
	tags["oneway"] = "yes"
	return w.Update(entity.WayPatch{Nodes: rev, Tags: tags})
}

// step3SplitAtKeyVertices splits each road way at every interior
// vertex it shares with another road way, preserving the original
// way's id on the first fragment (spec.md §4.4 step 3). It returns the
// resulting fragment set.
func step3SplitAtKeyVertices(txn *graph.Txn, roadWays map[entity.ID]bool) map[entity.ID]bool {
	fragments := make(map[entity.ID]bool, len(roadWays))

	for wID := range roadWays {
		e, ok := txn.HasEntity(wID)
		if !ok {
			continue
		}
		w, ok := e.(*entity.Way)
		if !ok {
			continue
		}
		nodes := w.Nodes()

		var splitAt []int
		for i := 1; i < len(nodes)-1; i++ {
			if isKeyVertex(txn, nodes[i], roadWays) {
				splitAt = append(splitAt, i)
			}
		}
		if len(splitAt) == 0 {
			fragments[wID] = true
			continue
		}

		bounds := append([]int{0}, splitAt...)
		bounds = append(bounds, len(nodes)-1)

		for i := 0; i < len(bounds)-1; i++ {
			segment := append([]entity.ID{}, nodes[bounds[i]:bounds[i+1]+1]...)
			if i == 0 {
				txn.Replace(w.Update(entity.WayPatch{Nodes: segment}))
				fragments[wID] = true
				continue
			}
			fragID := entity.NewLocalID(entity.KindWay)
			txn.Replace(entity.NewWay(fragID, segment, w.Tags()))
			fragments[fragID] = true
		}
	}
	return fragments
}

func isKeyVertex(txn *graph.Txn, id entity.ID, roadWays map[entity.ID]bool) bool {
	count := 0
	for _, w := range txn.ParentWays(id) {
		if roadWays[w] {
			count++
		}
	}
	return count >= 2
}

// step4AnnotateRoles tags every fragment with its role-eligibility
// flags (spec.md §4.4 step 4): from/to eligibility is relative to
// start, via is available to any fragment, and first/last are set on
// every fragment without regard to its position in the original way.
func step4AnnotateRoles(txn *graph.Txn, fragments map[entity.ID]bool, start entity.ID) map[entity.ID]WayRole {
	roles := make(map[entity.ID]WayRole, len(fragments))
	for wID := range fragments {
		e, ok := txn.HasEntity(wID)
		if !ok {
			continue
		}
		w, ok := e.(*entity.Way)
		if !ok {
			continue
		}
		oneWay := w.Tags()["oneway"] == "yes"
		r := WayRole{
			First:  true, // set on every fragment; split position is not tracked
			Last:   true,
			Via:    true,
			OneWay: oneWay,
		}
		if w.Last() == start {
			r.From = true
		}
		if w.First() == start && !oneWay {
			r.From = true
		}
		if w.First() == start {
			r.To = true
		}
		if w.Last() == start && !oneWay {
			r.To = true
		}
		roles[wID] = r
	}
	return roles
}

// step5TrimLeaves iteratively removes dead-end fragments — ones that
// do not touch start and have an endpoint no other remaining fragment
// reaches — until no more can be removed (spec.md §4.4 step 5). It does
// not trim fragments at vertices shared by two or more fragments.
func step5TrimLeaves(txn *graph.Txn, roles map[entity.ID]WayRole) map[entity.ID]WayRole {
	for {
		removed := false
		endpointDegree := make(map[entity.ID]int)
		for wID := range roles {
			e, ok := txn.HasEntity(wID)
			if !ok {
				continue
			}
			w := e.(*entity.Way)
			endpointDegree[w.First()]++
			endpointDegree[w.Last()]++
		}

		for wID, role := range roles {
			if role.From || role.To {
				continue // never trim a fragment that touches the analyzed vertex
			}
			e, ok := txn.HasEntity(wID)
			if !ok {
				continue
			}
			w := e.(*entity.Way)
			if endpointDegree[w.First()] <= 1 || endpointDegree[w.Last()] <= 1 {
				delete(roles, wID)
				removed = true
			}
		}
		if !removed {
			break
		}
	}
	return roles
}
