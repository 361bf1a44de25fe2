package intersection

import (
	"testing"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/geo"
	"github.com/osmtopo/osmtopo/internal/graph"
	"github.com/stretchr/testify/require"
)

func n(ref int64) entity.ID { return entity.ID{Type: entity.KindNode, Ref: ref} }
func w(ref int64) entity.ID { return entity.ID{Type: entity.KindWay, Ref: ref} }

// buildPlusIntersection builds a 4-way crossing centered on hub (id 1),
// with one road leg in each compass direction, all tagged as roads.
func buildPlusIntersection(t *testing.T) (*graph.Graph, entity.ID) {
	t.Helper()
	g := graph.New()
	hub := n(1)
	south, north, east, west := n(2), n(3), n(4), n(5)

	southWay := entity.NewWay(w(1), []entity.ID{south, hub}, entity.Tags{"highway": "residential"})
	northWay := entity.NewWay(w(2), []entity.ID{hub, north}, entity.Tags{"highway": "residential"})
	eastWay := entity.NewWay(w(3), []entity.ID{hub, east}, entity.Tags{"highway": "residential"})
	westWay := entity.NewWay(w(4), []entity.ID{west, hub}, entity.Tags{"highway": "residential"})

	g2 := g.Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(hub, geo.LngLat{Lng: 0, Lat: 0}, nil))
		txn.Replace(entity.NewNode(south, geo.LngLat{Lng: 0, Lat: -0.01}, nil))
		txn.Replace(entity.NewNode(north, geo.LngLat{Lng: 0, Lat: 0.01}, nil))
		txn.Replace(entity.NewNode(east, geo.LngLat{Lng: 0.01, Lat: 0}, nil))
		txn.Replace(entity.NewNode(west, geo.LngLat{Lng: -0.01, Lat: 0}, nil))
		txn.Replace(southWay)
		txn.Replace(northWay)
		txn.Replace(eastWay)
		txn.Replace(westWay)
	})
	return g2, hub
}

func TestBuildVirtualGraphCollectsRoads(t *testing.T) {
	g, hub := buildPlusIntersection(t)

	vg, err := Build(g, hub, 1000)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(vg.roles), 4)
}

func TestEnumerateTurnsFromOneLeg(t *testing.T) {
	g, hub := buildPlusIntersection(t)

	vg, err := Build(g, hub, 1000)
	require.NoError(t, err)

	turns := vg.Enumerate(w(1), 1)
	require.NotEmpty(t, turns)

	destinations := make(map[entity.ID]bool)
	for _, turn := range turns {
		destinations[turn.ToWay] = true
	}
	require.True(t, destinations[w(2)] || destinations[w(3)] || destinations[w(4)])
}

func TestNoLeftTurnRestrictionPrunesBranch(t *testing.T) {
	g, hub := buildPlusIntersection(t)

	g2 := g.Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewRelation(entity.ID{Type: entity.KindRelation, Ref: 1}, []entity.Member{
			{ID: w(1), Role: "from"},
			{ID: hub, Role: "via"},
			{ID: w(4), Role: "to"},
		}, entity.Tags{"type": "restriction", "restriction": "no_left_turn"}))
	})

	vg, err := Build(g2, hub, 1000)
	require.NoError(t, err)

	turns := vg.Enumerate(w(1), 1)
	for _, turn := range turns {
		require.False(t, turn.ToWay == w(4) && turn.Classification == ClassDirect,
			"a no_left_turn restriction must prune its exact from/via/to match")
	}
}

func TestInferRestrictionType(t *testing.T) {
	via := geo.LngLat{Lng: 0, Lat: 0}
	from := geo.LngLat{Lng: 0, Lat: -0.01}

	require.Equal(t, "no_u_turn", InferRestrictionType(via, from, from, true, false, false))
	require.Equal(t, "no_u_turn", InferRestrictionType(via, from, geo.LngLat{Lng: 0.001, Lat: -0.0099}, false, true, true))
	require.Equal(t, "no_straight_on", InferRestrictionType(via, from, geo.LngLat{Lng: 0, Lat: 0.01}, false, false, false))
	require.Equal(t, "no_right_turn", InferRestrictionType(via, from, geo.LngLat{Lng: 0.01, Lat: 0}, false, false, false))
	require.Equal(t, "no_left_turn", InferRestrictionType(via, from, geo.LngLat{Lng: -0.01, Lat: 0}, false, false, false))
}
