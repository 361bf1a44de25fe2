// Package intersection builds the bounded virtual sub-graph an
// intersection editor analyzes, and enumerates the turns possible from
// a way at that intersection under any restriction relations already
// in scope (spec.md §4.4).
package intersection

import (
	"fmt"
	"strings"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/geo"
	"github.com/osmtopo/osmtopo/internal/graph"
)

// WayRole is a road fragment's eligibility for each position in a turn
// (spec.md §4.4 step 4): whether it may serve as a from/via/to leg,
// plus its normalized one-way direction. First and Last are set on
// every fragment; a fragment's position within the way it was split
// from is not recorded.
type WayRole struct {
	First, Last    bool
	From, Via, To  bool
	OneWay         bool
}

// VirtualGraph is the bounded, transformed sub-graph built from a main
// Graph around a start vertex, ready for turn enumeration.
type VirtualGraph struct {
	g            *graph.Graph
	start        entity.ID
	roles        map[entity.ID]WayRole
	restrictions []restrictionCtx
	Steps        []string // recorded transformation log, for UI display/replay
}

// Build constructs the virtual sub-graph around start, containing
// every road way reachable within maxDistanceMeters that shares a
// vertex with another road, plus any restriction relations already
// referencing them (spec.md §4.4).
func Build(g *graph.Graph, start entity.ID, maxDistanceMeters float64) (*VirtualGraph, error) {
	if _, err := g.Entity(start); err != nil {
		return nil, fmt.Errorf("intersection: %w", err)
	}

	roadWays, err := collectReachableRoads(g, start, maxDistanceMeters)
	if err != nil {
		return nil, err
	}
	restrictionRels := collectRestrictions(g, roadWays)

	vg := &VirtualGraph{start: start}

	vg.g = g.Update(func(txn *graph.Txn) {
		restrictionRels = step1PruneRestrictions(txn, restrictionRels)
		vg.Steps = append(vg.Steps, fmt.Sprintf("pruned to %d restriction(s)", len(restrictionRels)))

		step2ReverseNegativeOneways(txn, roadWays)
		vg.Steps = append(vg.Steps, "normalized oneway=-1 ways")

		fragments := step3SplitAtKeyVertices(txn, roadWays)
		vg.Steps = append(vg.Steps, fmt.Sprintf("split into %d road fragment(s)", len(fragments)))

		roles := step4AnnotateRoles(txn, fragments, start)

		roles = step5TrimLeaves(txn, roles)
		vg.Steps = append(vg.Steps, fmt.Sprintf("%d fragment(s) after leaf trim", len(roles)))

		vg.roles = roles
	})

	for _, r := range restrictionRels {
		if ctx, ok := buildRestrictionCtx(r); ok {
			vg.restrictions = append(vg.restrictions, ctx)
		}
	}

	return vg, nil
}

// collectReachableRoads breadth-first searches out from start along
// road ways, bounded by cumulative segment distance.
func collectReachableRoads(g *graph.Graph, start entity.ID, maxDistance float64) (map[entity.ID]bool, error) {
	roads := make(map[entity.ID]bool)
	bestDist := map[entity.ID]float64{start: 0}
	queue := []entity.ID{start}

	for len(queue) > 0 {
		vertex := queue[0]
		queue = queue[1:]
		dist := bestDist[vertex]

		for _, wID := range g.ParentWays(vertex) {
			we, ok := g.HasEntity(wID)
			if !ok {
				continue
			}
			w, ok := we.(*entity.Way)
			if !ok || !w.IsRoad() {
				continue
			}
			roads[wID] = true

			nodes, err := g.ChildNodes(w)
			if err != nil {
				return nil, fmt.Errorf("intersection: %w", err)
			}
			for i, n := range nodes {
				if n.ID() != vertex {
					continue
				}
				for _, j := range [2]int{i - 1, i + 1} {
					if j < 0 || j >= len(nodes) {
						continue
					}
					neighbor := nodes[j]
					total := dist + geo.DistanceMeters(n.Loc(), neighbor.Loc())
					if total > maxDistance {
						continue
					}
					if prev, seen := bestDist[neighbor.ID()]; seen && prev <= total {
						continue
					}
					bestDist[neighbor.ID()] = total
					queue = append(queue, neighbor.ID())
				}
			}
		}
	}
	return roads, nil
}

func collectRestrictions(g *graph.Graph, roadWays map[entity.ID]bool) []*entity.Relation {
	seen := make(map[entity.ID]bool)
	var out []*entity.Relation
	for wID := range roadWays {
		for _, relID := range g.ParentRelations(wID) {
			if seen[relID] {
				continue
			}
			seen[relID] = true
			e, ok := g.HasEntity(relID)
			if !ok {
				continue
			}
			if r, ok := e.(*entity.Relation); ok && r.IsRestriction() {
				out = append(out, r)
			}
		}
	}
	return out
}

// restrictionCtx is a restriction relation reduced to the fields turn
// classification needs: its matched-so-far via chain is walked
// incrementally during DFS (see turns.go).
type restrictionCtx struct {
	rel     *entity.Relation
	fromWay entity.ID
	viaIDs  []entity.ID
	toWay   entity.ID
	kind    string // "no" or "only"
}

func buildRestrictionCtx(r *entity.Relation) (restrictionCtx, bool) {
	from, ok := r.MemberByRole("from")
	if !ok {
		return restrictionCtx{}, false
	}
	to, ok := r.MemberByRole("to")
	if !ok {
		return restrictionCtx{}, false
	}
	vias := r.MembersByRole("via")
	if len(vias) == 0 {
		return restrictionCtx{}, false
	}
	rt, ok := r.RestrictionType()
	if !ok {
		return restrictionCtx{}, false
	}
	kind := "no"
	if strings.HasPrefix(rt, "only_") {
		kind = "only"
	}
	viaIDs := make([]entity.ID, len(vias))
	for i, m := range vias {
		viaIDs[i] = m.ID
	}
	return restrictionCtx{rel: r, fromWay: from.ID, viaIDs: viaIDs, toWay: to.ID, kind: kind}, true
}
