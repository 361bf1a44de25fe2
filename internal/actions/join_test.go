package actions

import (
	"testing"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
	"github.com/stretchr/testify/require"
)

func TestJoinSingleMemberMultipolygonCollapse(t *testing.T) {
	a, b, c := n(1), n(2), n(3)
	u, v := w(1), w(2)
	relID := r(1)

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewNode(b, loc(1, 0), nil))
		txn.Replace(entity.NewNode(c, loc(2, 0), nil))
		txn.Replace(entity.NewWay(u, []entity.ID{a, b}, nil))
		txn.Replace(entity.NewWay(v, []entity.ID{b, c}, nil))
		txn.Replace(entity.NewRelation(relID, []entity.Member{
			{ID: u, Role: "outer"}, {ID: v, Role: "outer"},
		}, entity.Tags{"type": "multipolygon", "building": "yes"}))
	})

	cfg := DefaultConfig()
	require.Equal(t, "", JoinDisabled(g, []entity.ID{u, v}, cfg))

	g2 := Join(g, []entity.ID{u, v}, cfg)

	survivor, ok := g2.HasEntity(u)
	require.True(t, ok, "u sorts first on ascending id and survives")
	_, ok = g2.HasEntity(v)
	require.False(t, ok)
	_, ok = g2.HasEntity(relID)
	require.False(t, ok, "a multipolygon left with one member collapses into the survivor")

	sw := survivor.(*entity.Way)
	require.Equal(t, []entity.ID{a, b, c}, sw.Nodes())
	require.Equal(t, "yes", sw.Tags()["building"])
	require.Equal(t, "", sw.Tags()["type"])
	require.Equal(t, "yes", sw.Tags()["area"], "the open survivor is not yet an area, so area=yes is added")
}

func TestJoinDisabledNotAdjacent(t *testing.T) {
	a, b, c, d := n(1), n(2), n(3), n(4)
	u, v := w(1), w(2)

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewNode(b, loc(1, 0), nil))
		txn.Replace(entity.NewNode(c, loc(2, 0), nil))
		txn.Replace(entity.NewNode(d, loc(3, 0), nil))
		txn.Replace(entity.NewWay(u, []entity.ID{a, b}, nil))
		txn.Replace(entity.NewWay(v, []entity.ID{c, d}, nil))
	})

	require.Equal(t, "not_adjacent", JoinDisabled(g, []entity.ID{u, v}, DefaultConfig()))
}

func TestJoinDisabledConflictingTags(t *testing.T) {
	a, b, c := n(1), n(2), n(3)
	u, v := w(1), w(2)

	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, loc(0, 0), nil))
		txn.Replace(entity.NewNode(b, loc(1, 0), nil))
		txn.Replace(entity.NewNode(c, loc(2, 0), nil))
		txn.Replace(entity.NewWay(u, []entity.ID{a, b}, entity.Tags{"highway": "residential"}))
		txn.Replace(entity.NewWay(v, []entity.ID{b, c}, entity.Tags{"highway": "footway"}))
	})

	require.Equal(t, "conflicting_tags", JoinDisabled(g, []entity.ID{u, v}, DefaultConfig()))

	cfg := DefaultConfig()
	cfg.TagnosticRoadCombine = true
	require.Equal(t, "", JoinDisabled(g, []entity.ID{u, v}, cfg), "tagnosticRoadCombine permits differing highway values")
}
