package diff

import (
	"testing"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/geo"
	"github.com/osmtopo/osmtopo/internal/graph"
	"github.com/stretchr/testify/require"
)

func nodeID(ref int64) entity.ID { return entity.ID{Type: entity.KindNode, Ref: ref} }
func wayID(ref int64) entity.ID  { return entity.ID{Type: entity.KindWay, Ref: ref} }

func TestCreatedAndModified(t *testing.T) {
	g := graph.New()
	a, b := nodeID(1), nodeID(2)
	w := entity.NewWay(wayID(1), []entity.ID{a, b}, entity.Tags{"highway": "residential"})

	g1 := g.Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, geo.LngLat{Lng: 0, Lat: 0}, entity.Tags{"amenity": "cafe"}))
		txn.Replace(entity.NewNode(b, geo.LngLat{Lng: 1, Lat: 1}, nil))
		txn.Replace(w)
	})

	d1 := New(nil, g1)
	require.Len(t, d1.Created(), 3)
	require.Empty(t, d1.Modified())
	require.Empty(t, d1.Deleted())

	moved := geo.LngLat{Lng: 2, Lat: 2}
	g2 := g1.Update(func(txn *graph.Txn) {
		n, _ := txn.Entity(b)
		txn.Replace(n.(*entity.Node).Update(entity.NodePatch{Loc: &moved}))
	})

	d2 := New(g1, g2)
	mods := d2.Modified()
	require.Len(t, mods, 1)
	require.Equal(t, b, mods[0].ID)
	require.Equal(t, AspectGeometry, mods[0].Aspect)
}

func TestSummaryCollapsesVertexMoveIntoWay(t *testing.T) {
	g := graph.New()
	a, b, c := nodeID(1), nodeID(2), nodeID(3)
	w := entity.NewWay(wayID(1), []entity.ID{a, b, c}, entity.Tags{"highway": "residential"})

	g1 := g.Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, geo.LngLat{Lng: 0, Lat: 0}, nil))
		txn.Replace(entity.NewNode(b, geo.LngLat{Lng: 1, Lat: 1}, nil))
		txn.Replace(entity.NewNode(c, geo.LngLat{Lng: 2, Lat: 2}, nil))
		txn.Replace(w)
	})

	moved := geo.LngLat{Lng: 9, Lat: 9}
	g2 := g1.Update(func(txn *graph.Txn) {
		n, _ := txn.Entity(b)
		txn.Replace(n.(*entity.Node).Update(entity.NodePatch{Loc: &moved}))
	})

	d := New(g1, g2)
	require.Len(t, d.Modified(), 1, "raw diff still reports the moved vertex directly")

	summary := d.Summary()
	require.Len(t, summary, 1)
	require.Equal(t, wayID(1), summary[0].ID, "summary attributes the vertex move to its parent way")
}

func TestSummarySuppressesUninterestingVertexCreation(t *testing.T) {
	g := graph.New()
	a, b := nodeID(1), nodeID(2)
	w := entity.NewWay(wayID(1), []entity.ID{a, b}, entity.Tags{"highway": "residential"})

	g1 := g.Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, geo.LngLat{}, nil))
	})
	g2 := g1.Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(b, geo.LngLat{Lng: 1, Lat: 1}, nil))
		txn.Replace(w)
	})

	d := New(g1, g2)
	summary := d.Summary()

	var sawVertexCreate bool
	for _, c := range summary {
		if c.ID == b && c.Kind == ChangeCreated {
			sawVertexCreate = true
		}
	}
	require.False(t, sawVertexCreate, "creating a plain vertex alongside its way is suppressed")
}

func TestCompleteWalksWayNodesAndParents(t *testing.T) {
	g := graph.New()
	a, b := nodeID(1), nodeID(2)
	w := entity.NewWay(wayID(1), []entity.ID{a, b}, entity.Tags{"highway": "residential"})

	g1 := g.Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(a, geo.LngLat{}, nil))
		txn.Replace(entity.NewNode(b, geo.LngLat{}, nil))
		txn.Replace(w)
	})

	ns := []entity.ID{a, b, nodeID(3)}
	w2 := w.Update(entity.WayPatch{Nodes: ns})
	g2 := g1.Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(nodeID(3), geo.LngLat{Lng: 5, Lat: 5}, nil))
		txn.Replace(w2)
	})

	d := New(g1, g2)
	closure := d.Complete()
	require.Contains(t, closure, wayID(1))
	require.Contains(t, closure, a)
	require.Contains(t, closure, b)
	require.Contains(t, closure, nodeID(3))
}
