package entity

import (
	"testing"

	"github.com/osmtopo/osmtopo/internal/geo"
	"github.com/stretchr/testify/require"
)

type stubGraph struct {
	entities map[ID]Entity
	parents  map[ID][]ID
}

func (g *stubGraph) HasEntity(id ID) (Entity, bool) {
	e, ok := g.entities[id]
	return e, ok
}
func (g *stubGraph) ParentWays(id ID) []ID      { return g.parents[id] }
func (g *stubGraph) ParentRelations(id ID) []ID { return nil }

func TestNodeUpdateBumpsVersion(t *testing.T) {
	n := NewNode(ID{Type: KindNode, Ref: 1}, geo.LngLat{Lng: 1, Lat: 2}, Tags{"amenity": "cafe"})
	v, ok := n.Version()
	require.False(t, ok)
	require.Equal(t, 0, v)

	loc := geo.LngLat{Lng: 3, Lat: 4}
	n2 := n.Update(NodePatch{Loc: &loc})
	v2, ok2 := n2.Version()
	require.True(t, ok2)
	require.Equal(t, 1, v2)
	require.Equal(t, loc, n2.Loc())
	require.Equal(t, geo.LngLat{Lng: 1, Lat: 2}, n.Loc(), "original must be unmodified")
}

func TestNodeGeometryVertexVsPoint(t *testing.T) {
	wayID := ID{Type: KindWay, Ref: 1}
	plain := NewNode(ID{Type: KindNode, Ref: 1}, geo.LngLat{}, nil)
	tagged := NewNode(ID{Type: KindNode, Ref: 2}, geo.LngLat{}, Tags{"amenity": "cafe"})

	g := &stubGraph{
		entities: map[ID]Entity{},
		parents: map[ID][]ID{
			plain.ID():  {wayID},
			tagged.ID(): {wayID},
		},
	}

	require.Equal(t, GeometryVertex, plain.Geometry(g))
	require.Equal(t, GeometryPoint, tagged.Geometry(g), "interesting tags make it a standalone point even with a parent way")
}

func TestWayClosedAreaDegenerate(t *testing.T) {
	a, b, c := ID{Type: KindNode, Ref: 1}, ID{Type: KindNode, Ref: 2}, ID{Type: KindNode, Ref: 3}

	line := NewWay(ID{Type: KindWay, Ref: 1}, []ID{a, b}, nil)
	require.False(t, line.IsClosed())
	require.False(t, line.IsDegenerate(), "2 distinct nodes meets the non-area minimum of 2")

	singleton := NewWay(ID{Type: KindWay, Ref: 4}, []ID{a}, nil)
	require.True(t, singleton.IsDegenerate())

	ring := NewWay(ID{Type: KindWay, Ref: 2}, []ID{a, b, c, a}, Tags{"area": "yes"})
	require.True(t, ring.IsClosed())
	require.True(t, ring.IsArea())
	require.Equal(t, 3, ring.DistinctNodeCount())
	require.False(t, ring.IsDegenerate())

	tooSmallRing := NewWay(ID{Type: KindWay, Ref: 3}, []ID{a, b, a}, Tags{"area": "yes"})
	require.True(t, tooSmallRing.IsDegenerate(), "closed area with only 2 distinct nodes is degenerate")
}

func TestWayNodeEditing(t *testing.T) {
	a, b, c, d := ID{Type: KindNode, Ref: 1}, ID{Type: KindNode, Ref: 2}, ID{Type: KindNode, Ref: 3}, ID{Type: KindNode, Ref: 4}
	w := NewWay(ID{Type: KindWay, Ref: 1}, []ID{a, b, c}, nil)

	w2 := w.AddNode(d, 1)
	require.Equal(t, []ID{a, d, b, c}, w2.Nodes())

	w3 := w2.RemoveNode(d)
	require.Equal(t, []ID{a, b, c}, w3.Nodes())

	w4 := NewWay(ID{Type: KindWay, Ref: 2}, []ID{a, b, b, c}, nil).RemoveNode(b)
	require.Equal(t, []ID{a, c}, w4.Nodes(), "removing a repeated node collapses adjacent duplicates")

	w5 := w.ReplaceNode(b, d)
	require.Equal(t, []ID{a, d, c}, w5.Nodes())
}

func TestTagsMergeSemicolonJoin(t *testing.T) {
	a := Tags{"cuisine": "italian", "name": "Joe's"}
	b := Tags{"cuisine": "pizza", "amenity": "restaurant"}

	merged := a.Merge(b)
	require.Equal(t, "italian;pizza", merged["cuisine"])
	require.Equal(t, "Joe's", merged["name"])
	require.Equal(t, "restaurant", merged["amenity"])
}

func TestHasInterestingTags(t *testing.T) {
	require.False(t, Tags{"source": "survey", "created_by": "JOSM"}.HasInteresting())
	require.False(t, Tags{"disused:amenity": "restaurant"}.HasInteresting())
	require.True(t, Tags{"amenity": "cafe"}.HasInteresting())
}

func TestRelationMultipolygonRestriction(t *testing.T) {
	from := Member{ID: ID{Type: KindWay, Ref: 1}, Role: "from"}
	to := Member{ID: ID{Type: KindWay, Ref: 2}, Role: "to"}
	via := Member{ID: ID{Type: KindNode, Ref: 1}, Role: "via"}

	r := NewRelation(ID{Type: KindRelation, Ref: 1}, []Member{from, via, to}, Tags{
		"type":        "restriction",
		"restriction": "no_left_turn",
	})
	require.True(t, r.IsRestriction())
	require.False(t, r.IsMultipolygon())

	g := &stubGraph{entities: map[ID]Entity{
		from.ID: NewWay(from.ID, nil, nil),
		to.ID:   NewWay(to.ID, nil, nil),
		via.ID:  NewNode(via.ID, geo.LngLat{}, nil),
	}}
	require.True(t, r.IsValidRestriction(g))

	rt, ok := r.RestrictionType()
	require.True(t, ok)
	require.Equal(t, "no_left_turn", rt)
}

func TestIDRoundTrip(t *testing.T) {
	cases := []string{"n123", "n-45", "w1", "r-2", "c7"}
	for _, s := range cases {
		id, err := ParseID(s)
		require.NoError(t, err)
		require.Equal(t, s, id.String())
	}

	_, err := ParseID("x1")
	require.Error(t, err)
}

func TestNewLocalIDIsNegativeAndUnique(t *testing.T) {
	a := NewLocalID(KindNode)
	b := NewLocalID(KindNode)
	require.True(t, a.Local())
	require.True(t, b.Local())
	require.NotEqual(t, a, b)
}
