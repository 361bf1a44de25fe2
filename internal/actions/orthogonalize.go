package actions

import (
	"math"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/geo"
	"github.com/osmtopo/osmtopo/internal/graph"
)

const (
	orthogonalizeMaxIterations = 1000
	orthogonalizeEpsilon       = 1e-9
	orthogonalizeDamping       = 0.99
)

// OrthogonalizeDisabled reports why Orthogonalize cannot run on wayID,
// or "" if it can (spec.md §4.5 orthogonalize).
func OrthogonalizeDisabled(g *graph.Graph, wayID entity.ID) string {
	e, ok := g.HasEntity(wayID)
	if !ok {
		return "not_eligible"
	}
	w, ok := e.(*entity.Way)
	if !ok || w.DistinctNodeCount() < 3 {
		return "not_squarish"
	}
	return ""
}

// Orthogonalize squares a closed way's corners toward right angles and
// straightens its near-straight vertices, as a transitionable action
// (spec.md §4.5 orthogonalize). For an open way, only the
// straight/corner classification and re-projection pass run; corner
// rotation is defined only for closed rings. degThresh is the
// degrees-from-180° tolerance separating "straight" points (merely
// re-projected) from "simplified" corners (actively adjusted).
func Orthogonalize(g *graph.Graph, wayID entity.ID, degThresh float64) func(t float64) *graph.Graph {
	return func(t float64) *graph.Graph {
		return g.Update(func(txn *graph.Txn) {
			e, ok := txn.HasEntity(wayID)
			if !ok {
				return
			}
			w, ok := e.(*entity.Way)
			if !ok {
				return
			}
			nodeIDs := w.Nodes()
			closed := w.IsClosed()
			n := len(nodeIDs)
			if closed {
				n--
			}
			if n < 3 {
				return
			}

			nodes := make([]*entity.Node, n)
			orig := make([]geo.LngLat, n)
			for i := 0; i < n; i++ {
				ne, ok := txn.HasEntity(nodeIDs[i])
				if !ok {
					return
				}
				nd, ok := ne.(*entity.Node)
				if !ok {
					return
				}
				nodes[i] = nd
				orig[i] = nd.Loc()
			}

			straight := classifyStraight(orig, closed, degThresh)
			adjusted := append([]geo.LngLat(nil), orig...)
			if closed {
				adjusted = orthogonalizeClosedCorners(adjusted, straight)
			}
			projectStraightOntoEdges(adjusted, straight, closed)

			toDelete := make(map[entity.ID]bool)
			for i := 0; i < n; i++ {
				final := geo.Lerp(orig[i], adjusted[i], t)
				if t >= 1 && straight[i] && !nodes[i].HasInterestingTags() && isDegreeOneVertex(txn, nodeIDs[i], wayID) {
					toDelete[nodeIDs[i]] = true
					continue
				}
				txn.Replace(nodes[i].Update(entity.NodePatch{Loc: &final}))
			}

			if len(toDelete) > 0 {
				kept := make([]entity.ID, 0, len(nodeIDs))
				for _, id := range nodeIDs {
					if !toDelete[id] {
						kept = append(kept, id)
					}
				}
				txn.Replace(w.Update(entity.WayPatch{Nodes: kept}))
				for id := range toDelete {
					txn.Remove(id)
				}
			}
		})
	}
}

// classifyStraight marks each vertex straight (true) when the turn at
// it is within degThresh of 180°, i.e. its neighbors and it are nearly
// collinear — the "straights" spec.md §4.5 separates from "simplified"
// corners. Endpoints of an open way are never straight: they anchor
// the chain.
func classifyStraight(pts []geo.LngLat, closed bool, degThresh float64) []bool {
	n := len(pts)
	straight := make([]bool, n)
	// a is the incoming direction vector, b the outgoing one: a vertex
	// is straight when they point nearly the same way (small angle
	// between them), not when they nearly reverse.
	cosThresh := math.Cos(degThresh * math.Pi / 180)
	for i := 0; i < n; i++ {
		if !closed && (i == 0 || i == n-1) {
			continue
		}
		prev := pts[(i-1+n)%n]
		next := pts[(i+1)%n]
		a := sub2(pts[i], prev)
		b := sub2(next, pts[i])
		na, ok1 := normalize2(a)
		nb, ok2 := normalize2(b)
		if !ok1 || !ok2 {
			continue
		}
		dot := na.Lng*nb.Lng + na.Lat*nb.Lat
		if dot >= cosThresh {
			straight[i] = true
		}
	}
	return straight
}

// orthogonalizeClosedCorners iteratively nudges each non-straight
// vertex of a closed ring so the turn there approaches the nearest
// multiple of 90°, up to orthogonalizeMaxIterations or convergence
// below orthogonalizeEpsilon (spec.md §4.5 orthogonalize).
func orthogonalizeClosedCorners(pts []geo.LngLat, straight []bool) []geo.LngLat {
	n := len(pts)
	var corners []int
	for i, s := range straight {
		if !s {
			corners = append(corners, i)
		}
	}
	if len(corners) < 3 {
		return pts
	}

	out := append([]geo.LngLat(nil), pts...)
	step := 1.0
	for iter := 0; iter < orthogonalizeMaxIterations; iter++ {
		maxChange := 0.0
		for k, idx := range corners {
			prevIdx := corners[(k-1+len(corners))%len(corners)]
			nextIdx := corners[(k+1)%len(corners)]
			prev, curr, next := out[prevIdx], out[idx], out[nextIdx]

			a := sub2(curr, prev)
			b := sub2(next, curr)
			na, ok1 := normalize2(a)
			nb, ok2 := normalize2(b)
			if !ok1 || !ok2 {
				continue
			}
			cross := na.Lng*nb.Lat - na.Lat*nb.Lng
			dot := na.Lng*nb.Lng + na.Lat*nb.Lat
			angle := math.Atan2(cross, dot)
			target := math.Round(angle/(math.Pi/2)) * (math.Pi / 2)
			delta := target - angle

			perp := geo.LngLat{Lng: -nb.Lat, Lat: nb.Lng}
			blen := math.Hypot(b.Lng, b.Lat)
			magnitude := delta * blen * 0.5 * step
			moved := geo.LngLat{Lng: curr.Lng + perp.Lng*magnitude, Lat: curr.Lat + perp.Lat*magnitude}

			change := math.Hypot(moved.Lng-curr.Lng, moved.Lat-curr.Lat)
			if change > maxChange {
				maxChange = change
			}
			out[idx] = moved
		}
		step *= orthogonalizeDamping
		if maxChange < orthogonalizeEpsilon {
			break
		}
	}
	return out
}

// projectStraightOntoEdges snaps every straight point onto the nearest
// edge of the (possibly just-adjusted) corner polyline, in place.
func projectStraightOntoEdges(pts []geo.LngLat, straight []bool, closed bool) {
	var corners []int
	for i, s := range straight {
		if !s {
			corners = append(corners, i)
		}
	}
	if len(corners) < 2 {
		return
	}
	edgeCount := len(corners)
	if !closed {
		edgeCount--
	}

	for i, s := range straight {
		if !s {
			continue
		}
		best := pts[i]
		bestDist := math.Inf(1)
		for e := 0; e < edgeCount; e++ {
			a := pts[corners[e]]
			b := pts[corners[(e+1)%len(corners)]]
			foot := geo.ProjectPointOnSegment(pts[i], a, b)
			d := math.Hypot(foot.Lng-pts[i].Lng, foot.Lat-pts[i].Lat)
			if d < bestDist {
				bestDist = d
				best = foot
			}
		}
		pts[i] = best
	}
}

func sub2(a, b geo.LngLat) geo.LngLat {
	return geo.LngLat{Lng: a.Lng - b.Lng, Lat: a.Lat - b.Lat}
}

func normalize2(v geo.LngLat) (geo.LngLat, bool) {
	l := math.Hypot(v.Lng, v.Lat)
	if l == 0 {
		return geo.LngLat{}, false
	}
	return geo.LngLat{Lng: v.Lng / l, Lat: v.Lat / l}, true
}

// isDegreeOneVertex reports whether id's only parent way is wayID and
// it has no parent relation — eligible for deletion once straightened
// flat against its neighbors.
func isDegreeOneVertex(txn *graph.Txn, id, wayID entity.ID) bool {
	if len(txn.ParentRelations(id)) > 0 {
		return false
	}
	ways := txn.ParentWays(id)
	if len(ways) != 1 {
		return false
	}
	return ways[0] == wayID
}
