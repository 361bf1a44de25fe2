package actions

import (
	"testing"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
	"github.com/stretchr/testify/require"
)

func TestDisconnectSharedMiddleNode(t *testing.T) {
	a, b, c, d := n(1), n(2), n(3), n(4)
	dashWay := w(1) // "-" = [a, b, c]
	barWay := w(2)  // "|" = [d, b]

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewNode(b, loc(1, 0), entity.Tags{"amenity": "bench"}))
		txn.Replace(entity.NewNode(c, loc(2, 0), nil))
		txn.Replace(entity.NewNode(d, loc(1, 1), nil))
		txn.Replace(entity.NewWay(dashWay, []entity.ID{a, b, c}, nil))
		txn.Replace(entity.NewWay(barWay, []entity.ID{d, b}, nil))
	})

	require.Equal(t, "", DisconnectDisabled(g, b))

	star := n(100)
	cfg := Config{NewNodeID: &star}
	g2 := Disconnect(g, b, cfg)

	dash, ok := g2.HasEntity(dashWay)
	require.True(t, ok)
	require.Equal(t, []entity.ID{a, b, c}, dash.(*entity.Way).Nodes())

	bar, ok := g2.HasEntity(barWay)
	require.True(t, ok)
	require.Equal(t, []entity.ID{d, star}, bar.(*entity.Way).Nodes())

	newNode, ok := g2.HasEntity(star)
	require.True(t, ok)
	require.Equal(t, loc(1, 0), newNode.(*entity.Node).Loc())
	require.Equal(t, "bench", newNode.(*entity.Node).Tags()["amenity"])
}

func TestDisconnectDisabledNotConnected(t *testing.T) {
	a, b := n(1), n(2)
	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewWay(w(1), []entity.ID{a, b}, nil))
	})
	require.Equal(t, "not_connected", DisconnectDisabled(g, a))
}

func TestDisconnectDisabledSharedRestrictionIsIgnored(t *testing.T) {
	a, b, c := n(1), n(2), n(3)
	wayA, wayB := w(1), w(2)
	restriction := r(1)

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewNode(b, loc(1, 0), nil))
		txn.Replace(entity.NewNode(c, loc(2, 0), nil))
		txn.Replace(entity.NewWay(wayA, []entity.ID{a, b}, nil))
		txn.Replace(entity.NewWay(wayB, []entity.ID{b, c}, nil))
		txn.Replace(entity.NewRelation(restriction, []entity.Member{
			{ID: wayA, Role: "from"}, {ID: b, Role: "via"}, {ID: wayB, Role: "to"},
		}, entity.Tags{"type": "restriction", "restriction": "no_left_turn"}))
	})

	require.Equal(t, "", DisconnectDisabled(g, b), "a restriction relation never blocks disconnect")
}

func TestDisconnectDisabledSharedOrdinaryRelation(t *testing.T) {
	a, b, c := n(1), n(2), n(3)
	wayA, wayB := w(1), w(2)
	route := r(1)

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewNode(b, loc(1, 0), nil))
		txn.Replace(entity.NewNode(c, loc(2, 0), nil))
		txn.Replace(entity.NewWay(wayA, []entity.ID{a, b}, nil))
		txn.Replace(entity.NewWay(wayB, []entity.ID{b, c}, nil))
		txn.Replace(entity.NewRelation(route, []entity.Member{
			{ID: wayA, Role: ""}, {ID: wayB, Role: ""},
		}, entity.Tags{"type": "route"}))
	})

	require.Equal(t, "relation", DisconnectDisabled(g, b))
}
