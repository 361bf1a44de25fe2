package actions

import (
	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/geo"
	"github.com/osmtopo/osmtopo/internal/graph"
)

// StraightenWayDisabled reports why StraightenWay cannot run over
// wayIDs, or "" if it can (spec.md §4.5 straightenWay).
func StraightenWayDisabled(g *graph.Graph, wayIDs, selectedNodes []entity.ID) string {
	chain, ok := buildStraightenChain(g, wayIDs, selectedNodes)
	if !ok {
		return "not_adjacent"
	}
	if len(chain) < 3 {
		return "straight_enough"
	}
	start, end, ok := chainEndpointLocs(g, chain)
	if !ok || start == end {
		return "end_vertex"
	}
	total := geo.DistanceMeters(start, end)
	if total == 0 {
		return "end_vertex"
	}
	maxOffset := 0.0
	for _, id := range chain[1 : len(chain)-1] {
		loc, ok := nodeLoc(g, id)
		if !ok {
			continue
		}
		if d := geo.PerpendicularDistance(loc, start, end); d > maxOffset {
			maxOffset = d
		}
	}
	if maxOffset/total > 0.2 {
		return "too_bendy"
	}
	return ""
}

// StraightenWay concatenates wayIDs into one ordered node sequence and
// returns a transitionable action: at parameter t, every internal node
// is translated toward its foot of perpendicular on the line joining
// the chain's endpoints; at t=1, uninteresting internal nodes with no
// parent outside the chain are deleted instead (spec.md §4.5
// straightenWay).
func StraightenWay(g *graph.Graph, wayIDs, selectedNodes []entity.ID) func(t float64) *graph.Graph {
	return func(t float64) *graph.Graph {
		return g.Update(func(txn *graph.Txn) {
			chain, ok := buildStraightenChain(txn, wayIDs, selectedNodes)
			if !ok || len(chain) < 3 {
				return
			}
			start, end, ok := chainEndpointLocs(txn, chain)
			if !ok {
				return
			}
			for _, id := range chain[1 : len(chain)-1] {
				e, ok := txn.HasEntity(id)
				if !ok {
					continue
				}
				n, ok := e.(*entity.Node)
				if !ok {
					continue
				}
				if t >= 1 && !n.HasInterestingTags() && onlyChainParent(txn, id, wayIDs) {
					removeFromChainWays(txn, id, wayIDs)
					txn.Remove(id)
					continue
				}
				foot := geo.ProjectPointOnSegment(n.Loc(), start, end)
				newLoc := geo.Lerp(n.Loc(), foot, t)
				txn.Replace(n.Update(entity.NodePatch{Loc: &newLoc}))
			}
		})
	}
}

func buildStraightenChain(gv entity.GraphView, wayIDs, selectedNodes []entity.ID) ([]entity.ID, bool) {
	ways := make([]*entity.Way, 0, len(wayIDs))
	for _, id := range wayIDs {
		e, ok := gv.HasEntity(id)
		if !ok {
			return nil, false
		}
		w, ok := e.(*entity.Way)
		if !ok {
			return nil, false
		}
		ways = append(ways, w)
	}
	chain, ok := sequenceWays(ways)
	if !ok {
		return nil, false
	}
	if len(selectedNodes) == 2 {
		i1, ok1 := indexOfID(chain, selectedNodes[0])
		i2, ok2 := indexOfID(chain, selectedNodes[1])
		if ok1 && ok2 {
			if i1 > i2 {
				i1, i2 = i2, i1
			}
			chain = chain[i1 : i2+1]
		}
	}
	return chain, true
}

func indexOfID(ids []entity.ID, target entity.ID) (int, bool) {
	for i, id := range ids {
		if id == target {
			return i, true
		}
	}
	return 0, false
}

func chainEndpointLocs(gv entity.GraphView, chain []entity.ID) (geo.LngLat, geo.LngLat, bool) {
	if len(chain) < 2 {
		return geo.LngLat{}, geo.LngLat{}, false
	}
	a, ok := nodeLoc(gv, chain[0])
	if !ok {
		return geo.LngLat{}, geo.LngLat{}, false
	}
	b, ok := nodeLoc(gv, chain[len(chain)-1])
	if !ok {
		return geo.LngLat{}, geo.LngLat{}, false
	}
	return a, b, true
}

func nodeLoc(gv entity.GraphView, id entity.ID) (geo.LngLat, bool) {
	e, ok := gv.HasEntity(id)
	if !ok {
		return geo.LngLat{}, false
	}
	n, ok := e.(*entity.Node)
	if !ok {
		return geo.LngLat{}, false
	}
	return n.Loc(), true
}

// onlyChainParent reports whether id has no parent relation and no
// parent way outside wayIDs.
func onlyChainParent(txn *graph.Txn, id entity.ID, wayIDs []entity.ID) bool {
	if len(txn.ParentRelations(id)) > 0 {
		return false
	}
	chainSet := make(map[entity.ID]bool, len(wayIDs))
	for _, w := range wayIDs {
		chainSet[w] = true
	}
	for _, pw := range txn.ParentWays(id) {
		if !chainSet[pw] {
			return false
		}
	}
	return true
}

func removeFromChainWays(txn *graph.Txn, nodeID entity.ID, wayIDs []entity.ID) {
	for _, wID := range wayIDs {
		e, ok := txn.HasEntity(wID)
		if !ok {
			continue
		}
		w, ok := e.(*entity.Way)
		if !ok {
			continue
		}
		for _, id := range w.Nodes() {
			if id == nodeID {
				txn.Replace(w.RemoveNode(nodeID))
				break
			}
		}
	}
}
