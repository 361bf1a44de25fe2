package graph

import (
	"testing"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/geo"
	"github.com/stretchr/testify/require"
)

func nodeID(ref int64) entity.ID { return entity.ID{Type: entity.KindNode, Ref: ref} }
func wayID(ref int64) entity.ID  { return entity.ID{Type: entity.KindWay, Ref: ref} }

func TestReplaceMaintainsParentWays(t *testing.T) {
	g := New()
	a, b, c := nodeID(1), nodeID(2), nodeID(3)
	w := entity.NewWay(wayID(1), []entity.ID{a, b}, nil)

	g2 := g.Update(func(txn *Txn) {
		txn.Replace(entity.NewNode(a, geo.LngLat{}, nil))
		txn.Replace(entity.NewNode(b, geo.LngLat{}, nil))
		txn.Replace(entity.NewNode(c, geo.LngLat{}, nil))
		txn.Replace(w)
	})

	require.ElementsMatch(t, []entity.ID{wayID(1)}, g2.ParentWays(a))
	require.ElementsMatch(t, []entity.ID{wayID(1)}, g2.ParentWays(b))
	require.Empty(t, g2.ParentWays(c))

	g3 := g2.Update(func(txn *Txn) {
		txn.Replace(w.Update(entity.WayPatch{Nodes: []entity.ID{b, c}}))
	})

	require.Empty(t, g3.ParentWays(a), "a dropped from the way loses its parent-way entry")
	require.ElementsMatch(t, []entity.ID{wayID(1)}, g3.ParentWays(b))
	require.ElementsMatch(t, []entity.ID{wayID(1)}, g3.ParentWays(c))

	// g2 is untouched by g3's edits; copy-on-write isolation.
	require.ElementsMatch(t, []entity.ID{wayID(1)}, g2.ParentWays(a))
}

func TestRemoveRetiresParentIndex(t *testing.T) {
	g := New()
	a, b := nodeID(1), nodeID(2)
	w := entity.NewWay(wayID(1), []entity.ID{a, b}, nil)

	g2 := g.Update(func(txn *Txn) {
		txn.Replace(entity.NewNode(a, geo.LngLat{}, nil))
		txn.Replace(entity.NewNode(b, geo.LngLat{}, nil))
		txn.Replace(w)
	})
	g3 := g2.Update(func(txn *Txn) {
		txn.Remove(wayID(1))
	})

	_, ok := g3.HasEntity(wayID(1))
	require.False(t, ok)
	require.Empty(t, g3.ParentWays(a))
	require.Empty(t, g3.ParentWays(b))
}

func TestRevertFallsBackToBase(t *testing.T) {
	g := New()
	a := nodeID(1)
	n := entity.NewNode(a, geo.LngLat{Lng: 1, Lat: 1}, nil)

	// n arrives as downloaded base data, not as a local edit.
	Rebase([]entity.Entity{n}, []*Graph{g}, false)
	g2 := g.Update()

	moved := geo.LngLat{Lng: 9, Lat: 9}
	g3 := g2.Update(func(txn *Txn) {
		txn.Replace(n.Update(entity.NodePatch{Loc: &moved}))
		txn.Revert(a)
	})

	got, err := g3.Entity(a)
	require.NoError(t, err)
	require.Equal(t, geo.LngLat{Lng: 1, Lat: 1}, got.(*entity.Node).Loc())
}

func TestEntityNotFound(t *testing.T) {
	g := New()
	_, err := g.Entity(nodeID(999))
	require.ErrorIs(t, err, ErrEntityNotFound)
}

func TestCommitRefreshesWayExtent(t *testing.T) {
	g := New()
	a, b := nodeID(1), nodeID(2)
	w := entity.NewWay(wayID(1), []entity.ID{a, b}, nil)

	g2 := g.Update(func(txn *Txn) {
		txn.Replace(entity.NewNode(a, geo.LngLat{Lng: 0, Lat: 0}, nil))
		txn.Replace(entity.NewNode(b, geo.LngLat{Lng: 10, Lat: 5}, nil))
		txn.Replace(w)
	})

	got, err := g2.Entity(wayID(1))
	require.NoError(t, err)
	ext := got.Geoms().Extent
	require.Equal(t, 0.0, ext.MinLng)
	require.Equal(t, 10.0, ext.MaxLng)
	require.Equal(t, 5.0, ext.MaxLat)
}

func TestChildNodesMemoized(t *testing.T) {
	g := New()
	a, b := nodeID(1), nodeID(2)
	w := entity.NewWay(wayID(1), []entity.ID{a, b}, nil)

	g2 := g.Update(func(txn *Txn) {
		txn.Replace(entity.NewNode(a, geo.LngLat{}, nil))
		txn.Replace(entity.NewNode(b, geo.LngLat{}, nil))
		txn.Replace(w)
	})

	nodes, err := g2.ChildNodes(w)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	nodesAgain, err := g2.ChildNodes(w)
	require.NoError(t, err)
	require.Same(t, nodes[0], nodesAgain[0])
}

func TestRebaseInsertsAndRestoresDeletedNode(t *testing.T) {
	g := New()
	a, b := nodeID(1), nodeID(2)

	g2 := g.Update(func(txn *Txn) {
		txn.Replace(entity.NewNode(a, geo.LngLat{}, nil))
	})
	g3 := g2.Update(func(txn *Txn) {
		txn.Remove(a) // locally delete a node the user hasn't seen referenced yet
	})

	stack := []*Graph{g, g2, g3}
	w := entity.NewWay(wayID(1), []entity.ID{a, b}, nil)
	Rebase([]entity.Entity{
		entity.NewNode(a, geo.LngLat{Lng: 1, Lat: 1}, nil),
		entity.NewNode(b, geo.LngLat{Lng: 2, Lat: 2}, nil),
		w,
	}, stack, false)

	_, ok := g3.HasEntity(a)
	require.True(t, ok, "rebase must restore a node newly referenced by upstream data")

	parents := g3.ParentWays(a)
	require.Contains(t, parents, wayID(1))
}
