package actions

import (
	"testing"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
	"github.com/stretchr/testify/require"
)

func TestExtractNodeWithParents(t *testing.T) {
	node := n(1)
	a, c := n(2), n(3)
	wayID := w(1)
	relID := r(1)

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(node, loc(1, 1), entity.Tags{"amenity": "cafe"}))
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewNode(c, loc(2, 2), nil))
		txn.Replace(entity.NewWay(wayID, []entity.ID{a, node, c}, nil))
		txn.Replace(entity.NewRelation(relID, []entity.Member{{ID: node, Role: "stop"}}, entity.Tags{"type": "route"}))
	})

	replacement := n(100)
	cfg := Config{NewNodeID: &replacement}
	g2 := Extract(g, node, cfg)

	we, ok := g2.HasEntity(wayID)
	require.True(t, ok)
	require.Equal(t, []entity.ID{a, replacement, c}, we.(*entity.Way).Nodes())

	re, ok := g2.HasEntity(relID)
	require.True(t, ok)
	m, found := re.(*entity.Relation).MemberByID(replacement)
	require.True(t, found)
	require.Equal(t, "stop", m.Role)

	orig, ok := g2.HasEntity(node)
	require.True(t, ok, "the original node survives as the unreferenced standalone feature")
	n := orig.(*entity.Node)
	require.Equal(t, "cafe", n.Tags()["amenity"])
	require.Equal(t, loc(1, 1), n.Loc())
	require.Empty(t, g2.ParentWays(node))
	require.Empty(t, g2.ParentRelations(node))
}

func TestExtractStandaloneNodeIsNoop(t *testing.T) {
	node := n(1)
	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(node, loc(0, 0), entity.Tags{"amenity": "bench"}))
	})

	g2 := Extract(g, node, DefaultConfig())
	e, ok := g2.HasEntity(node)
	require.True(t, ok)
	require.Equal(t, "bench", e.(*entity.Node).Tags()["amenity"])
}

func TestExtractWaySpawnsPointAndStripsTags(t *testing.T) {
	a, b, c := n(1), n(2), n(3)
	wayID := w(1)
	way := entity.NewWay(wayID, []entity.ID{a, b, c, a}, entity.Tags{
		"building": "yes",
		"name":     "Corner Store",
		"shop":     "convenience",
	})

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewNode(b, loc(1, 0), nil))
		txn.Replace(entity.NewNode(c, loc(1, 1), nil))
		txn.Replace(way)
	})

	newPoint := n(100)
	cfg := Config{NewNodeID: &newPoint}
	g2 := Extract(g, wayID, cfg)

	pe, ok := g2.HasEntity(newPoint)
	require.True(t, ok)
	pt := pe.(*entity.Node)
	require.Equal(t, "convenience", pt.Tags()["shop"])
	require.Equal(t, "Corner Store", pt.Tags()["name"], "name is retained on both")
	require.Empty(t, pt.Tags()["building"], "building-structural tags never move to the point")

	we, ok := g2.HasEntity(wayID)
	require.True(t, ok)
	wt := we.(*entity.Way).Tags()
	require.Equal(t, "yes", wt["building"])
	require.Empty(t, wt["shop"], "shop moved off the source way")
	require.Equal(t, "Corner Store", wt["name"])
}
