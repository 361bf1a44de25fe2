package actions

import (
	"testing"

	"github.com/osmtopo/osmtopo/internal/diff"
	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
	"github.com/stretchr/testify/require"
)

func TestChangeTags(t *testing.T) {
	node := n(1)
	g := graph.New().Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(node, loc(0, 0), entity.Tags{"amenity": "cafe"}))
	})

	g2 := ChangeTags(g, node, entity.Tags{"amenity": "restaurant", "cuisine": "italian"})

	e, ok := g2.HasEntity(node)
	require.True(t, ok)
	require.Equal(t, entity.Tags{"amenity": "restaurant", "cuisine": "italian"}, e.(*entity.Node).Tags())
}

func TestDiscardTagsOverModifiedAndCreated(t *testing.T) {
	base := graph.New()
	kept, dropped := n(1), n(2)

	head := base.Update(func(txn *graph.Txn) {
		txn.Replace(entity.NewNode(kept, loc(0, 0), entity.Tags{"source": "survey", "amenity": "bench"}))
		txn.Replace(entity.NewNode(dropped, loc(1, 1), entity.Tags{"source": "survey"}))
	})

	d := diff.New(base, head)
	g2 := DiscardTags(head, d, map[string]bool{"source": true})

	e, ok := g2.HasEntity(kept)
	require.True(t, ok)
	require.Equal(t, entity.Tags{"amenity": "bench"}, e.(*entity.Node).Tags())

	e2, ok := g2.HasEntity(dropped)
	require.True(t, ok)
	require.Empty(t, e2.(*entity.Node).Tags())
}
