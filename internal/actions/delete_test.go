package actions

import (
	"testing"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/geo"
	"github.com/osmtopo/osmtopo/internal/graph"
	"github.com/stretchr/testify/require"
)

func n(ref int64) entity.ID { return entity.ID{Type: entity.KindNode, Ref: ref} }
func w(ref int64) entity.ID { return entity.ID{Type: entity.KindWay, Ref: ref} }
func r(ref int64) entity.ID { return entity.ID{Type: entity.KindRelation, Ref: ref} }

func loc(lng, lat float64) geo.LngLat { return geo.LngLat{Lng: lng, Lat: lat} }

func TestDeleteWayOrphanRetention(t *testing.T) {
	a, b, c := n(1), n(2), n(3)
	wayID := w(1)
	way := entity.NewWay(wayID, []entity.ID{a, b, c, a}, entity.Tags{"area": "yes"})

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewNode(b, loc(1, 0), nil))
		txn.Replace(entity.NewNode(c, loc(1, 1), nil))
		txn.Replace(way)
	})

	g2 := DeleteWay(g, wayID)

	_, ok := g2.HasEntity(wayID)
	require.False(t, ok)
	for _, id := range []entity.ID{a, b, c} {
		_, ok := g2.HasEntity(id)
		require.False(t, ok, "untagged vertex with no remaining parent must be removed alongside its way")
	}
}

func TestDeleteWayRetainsTaggedVertex(t *testing.T) {
	a, b, c := n(1), n(2), n(3)
	wayID := w(1)
	way := entity.NewWay(wayID, []entity.ID{a, b, c, a}, entity.Tags{"area": "yes"})

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), entity.Tags{"amenity": "bench"}))
		txn.Replace(entity.NewNode(b, loc(1, 0), nil))
		txn.Replace(entity.NewNode(c, loc(1, 1), nil))
		txn.Replace(way)
	})

	g2 := DeleteWay(g, wayID)

	_, ok := g2.HasEntity(a)
	require.True(t, ok, "a standalone point feature survives its parent way's deletion")
	_, ok = g2.HasEntity(b)
	require.False(t, ok)
}

func TestDeleteNodeCascadesDegenerateWay(t *testing.T) {
	a, b := n(1), n(2)
	wayID := w(1)
	way := entity.NewWay(wayID, []entity.ID{a, b}, nil)

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewNode(b, loc(1, 0), nil))
		txn.Replace(way)
	})

	g2 := DeleteNode(g, b, true)

	_, ok := g2.HasEntity(wayID)
	require.False(t, ok, "a way left with one distinct node is degenerate and must be deleted too")
	_, ok = g2.HasEntity(a)
	require.False(t, ok, "a's only parent was the now-deleted way, and it carries nothing interesting")
}

func TestDeleteNodeWithoutCascadeLeavesDegenerateWay(t *testing.T) {
	a, b := n(1), n(2)
	wayID := w(1)
	way := entity.NewWay(wayID, []entity.ID{a, b}, entity.Tags{"highway": "residential"})

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewNode(b, loc(1, 0), nil))
		txn.Replace(way)
	})

	g2 := DeleteNode(g, b, false)

	e, ok := g2.HasEntity(wayID)
	require.True(t, ok)
	require.Equal(t, []entity.ID{a}, e.(*entity.Way).Nodes())
}

func TestDeleteRelationAllowUntaggedMembers(t *testing.T) {
	a := n(1)
	relID := r(1)
	rel := entity.NewRelation(relID, []entity.Member{{ID: a, Role: ""}}, entity.Tags{"type": "route"})

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(rel)
	})

	g2 := DeleteRelation(g, relID, true, false)
	_, ok := g2.HasEntity(a)
	require.False(t, ok, "an orphaned untagged former member is deleted by default")

	g3 := DeleteRelation(g, relID, true, true)
	_, ok = g3.HasEntity(a)
	require.True(t, ok, "allowUntaggedMembers keeps the orphaned member around unreferenced")
}

func TestDeleteMultipleHandlesAlreadyRemovedDependents(t *testing.T) {
	a, b := n(1), n(2)
	wayID := w(1)
	way := entity.NewWay(wayID, []entity.ID{a, b}, nil)

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewNode(b, loc(1, 0), nil))
		txn.Replace(way)
	})

	// Deleting the way first, then the node, should not panic even
	// though the node is already gone by the time its turn comes.
	g2 := DeleteMultiple(g, []entity.ID{wayID, a}, true, false)

	_, ok := g2.HasEntity(wayID)
	require.False(t, ok)
	_, ok = g2.HasEntity(a)
	require.False(t, ok)
}
