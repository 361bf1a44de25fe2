package actions

import (
	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
)

// AddMidpoint inserts node between the first consecutive (a,b) pair —
// in either orientation — of every way containing that edge. A
// degenerate back-and-forth [a,b,a] becomes the valid self-loop
// [a,node,b,a] rather than collapsing (spec.md §4.5 addMidpoint).
//
// Simplification: the spec names a separate `midpoint` parameter
// alongside `node`; here node's own Loc() is taken as the midpoint
// location, since a node entity and the location it should be created
// at are the same piece of information once node already exists.
func AddMidpoint(g *graph.Graph, a, b entity.ID, node *entity.Node) *graph.Graph {
	return g.Update(func(txn *graph.Txn) {
		txn.Replace(node)

		wayIDs := unionIDs(txn.ParentWays(a), txn.ParentWays(b))
		for _, wID := range wayIDs {
			e, ok := txn.HasEntity(wID)
			if !ok {
				continue
			}
			w, ok := e.(*entity.Way)
			if !ok {
				continue
			}
			nodes := w.Nodes()
			out := make([]entity.ID, 0, len(nodes)+1)
			inserted := false
			for i, id := range nodes {
				out = append(out, id)
				if inserted || i == len(nodes)-1 {
					continue
				}
				next := nodes[i+1]
				if (id == a && next == b) || (id == b && next == a) {
					out = append(out, node.ID())
					inserted = true
				}
			}
			if inserted {
				txn.Replace(w.Update(entity.WayPatch{Nodes: out}))
			}
		}
	})
}

func unionIDs(a, b []entity.ID) []entity.ID {
	seen := make(map[entity.ID]bool, len(a)+len(b))
	out := make([]entity.ID, 0, len(a)+len(b))
	for _, id := range a {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
