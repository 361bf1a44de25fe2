package actions

import (
	"testing"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/geo"
	"github.com/osmtopo/osmtopo/internal/graph"
	"github.com/stretchr/testify/require"
)

func TestOrthogonalizeSquaresANudgedRectangle(t *testing.T) {
	a, b, c, d := n(1), n(2), n(3), n(4)
	wayID := w(1)

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewNode(b, loc(1, 0.02), nil))
		txn.Replace(entity.NewNode(c, loc(1.02, 1), nil))
		txn.Replace(entity.NewNode(d, loc(-0.02, 1.01), nil))
		txn.Replace(entity.NewWay(wayID, []entity.ID{a, b, c, d, a}, nil))
	})

	require.Equal(t, "", OrthogonalizeDisabled(g, wayID))

	g2 := Orthogonalize(g, wayID, 15)(1)

	we, ok := g2.HasEntity(wayID)
	require.True(t, ok)
	nodes := we.(*entity.Way).Nodes()
	require.Len(t, nodes, 5)
	require.Equal(t, nodes[0], nodes[4], "the ring stays closed")

	locs := make([]geo.LngLat, 4)
	for i := 0; i < 4; i++ {
		e, ok := g2.HasEntity(nodes[i])
		require.True(t, ok)
		locs[i] = e.(*entity.Node).Loc()
	}

	for i := 0; i < 4; i++ {
		prev := locs[(i-1+4)%4]
		curr := locs[i]
		next := locs[(i+1)%4]
		v1 := geo.LngLat{Lng: curr.Lng - prev.Lng, Lat: curr.Lat - prev.Lat}
		v2 := geo.LngLat{Lng: next.Lng - curr.Lng, Lat: next.Lat - curr.Lat}
		dot := v1.Lng*v2.Lng + v1.Lat*v2.Lat
		require.InDelta(t, 0, dot, 0.15, "adjacent edges should end up nearly perpendicular")
	}
}

func TestOrthogonalizeDisabledTooFewNodes(t *testing.T) {
	a, b := n(1), n(2)
	wayID := w(1)
	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewNode(b, loc(1, 1), nil))
		txn.Replace(entity.NewWay(wayID, []entity.ID{a, b}, nil))
	})
	require.Equal(t, "not_squarish", OrthogonalizeDisabled(g, wayID))
}
