package graph

import (
	"runtime"
	"sort"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/geo"
	"golang.org/x/sync/errgroup"
)

// Commit seals g's in-progress edits: every entity touched since g was
// branched off its parent has its derived geometry refreshed, then a
// fresh graph pointing back at g is returned (spec.md §4.2 commit).
func (g *Graph) Commit() *Graph {
	g.refreshGeometry(g.dirtyIDsSorted())
	return &Graph{
		base:   g.base,
		local:  g.local.clone(),
		parent: g,
		dirty:  make(map[entity.ID]bool),
	}
}

func (g *Graph) dirtyIDsSorted() []entity.ID {
	ids := make([]entity.ID, 0, len(g.dirty))
	for id := range g.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Type != ids[j].Type {
			return ids[i].Type < ids[j].Type
		}
		return ids[i].Ref < ids[j].Ref
	})
	return ids
}

// refreshGeometry recomputes Geoms for each id in ids, fanning the work
// out across GOMAXPROCS goroutines: each entity's geometry cache is
// independent and nothing else touches the graph during this window
// (spec.md §5's single-threaded-cooperative model), so the recompute
// phase is the one place a bulk commit legitimately parallelizes.
func (g *Graph) refreshGeometry(ids []entity.ID) {
	if len(ids) == 0 {
		return
	}

	refreshed := make([]entity.Entity, len(ids))
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, id := range ids {
		i, id := i, id
		eg.Go(func() error {
			e, ok := g.HasEntity(id)
			if !ok {
				return nil
			}
			refreshed[i] = computeGeoms(g, e)
			return nil
		})
	}
	_ = eg.Wait() // computeGeoms never returns an error

	for i, id := range ids {
		if refreshed[i] != nil {
			g.local.entities[id] = localEntry{entity: refreshed[i]}
		}
	}
}

// computeGeoms derives e's extent (and, for areas and multipolygons,
// its pole of inaccessibility) by reading its children out of g.
func computeGeoms(g *Graph, e entity.Entity) entity.Entity {
	var ext geo.Extent
	var pole *geo.LngLat

	switch v := e.(type) {
	case *entity.Node:
		ext.Extend(v.Loc())

	case *entity.Way:
		nodes, err := g.ChildNodes(v)
		if err != nil {
			return nil
		}
		ring := make([]geo.LngLat, len(nodes))
		for i, n := range nodes {
			ring[i] = n.Loc()
			ext.Extend(n.Loc())
		}
		if v.IsArea() && len(ring) >= 3 {
			p := geo.PoleOfInaccessibility([][]geo.LngLat{ring})
			pole = &p
		}

	case *entity.Relation:
		for _, m := range v.Members() {
			me, ok := g.HasEntity(m.ID)
			if !ok {
				continue
			}
			if mg := me.Geoms(); mg.Computed() {
				ext.Extend(geo.LngLat{Lng: mg.Extent.MinLng, Lat: mg.Extent.MinLat})
				ext.Extend(geo.LngLat{Lng: mg.Extent.MaxLng, Lat: mg.Extent.MaxLat})
			}
		}
		if v.IsMultipolygon() {
			pole = multipolygonPole(g, v)
		}
	}

	return e.withGeoms(entity.NewGeoms(ext, pole))
}

// multipolygonPole computes the pole of inaccessibility from the outer
// ring(s) of a multipolygon relation; inner (hole) rings are ignored
// here since polylabel only needs a representative label point, not an
// exact area computation.
func multipolygonPole(g *Graph, r *entity.Relation) *geo.LngLat {
	var ring []geo.LngLat
	for _, m := range r.MembersByRole("outer") {
		e, ok := g.HasEntity(m.ID)
		if !ok {
			continue
		}
		w, ok := e.(*entity.Way)
		if !ok {
			continue
		}
		nodes, err := g.ChildNodes(w)
		if err != nil {
			continue
		}
		for _, n := range nodes {
			ring = append(ring, n.Loc())
		}
	}
	if len(ring) < 3 {
		return nil
	}
	p := geo.PoleOfInaccessibility([][]geo.LngLat{ring})
	return &p
}
