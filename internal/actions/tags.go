package actions

import (
	"github.com/osmtopo/osmtopo/internal/diff"
	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
)

// ChangeTags replaces id's tags verbatim (spec.md §4.5 changeTags).
func ChangeTags(g *graph.Graph, id entity.ID, tags entity.Tags) *graph.Graph {
	return g.Update(func(txn *graph.Txn) {
		replaceTags(txn, id, tags)
	})
}

func replaceTags(txn *graph.Txn, id entity.ID, tags entity.Tags) {
	e := must(txn, id)
	switch v := e.(type) {
	case *entity.Node:
		txn.Replace(v.Update(entity.NodePatch{Tags: tags}))
	case *entity.Way:
		txn.Replace(v.Update(entity.WayPatch{Tags: tags}))
	case *entity.Relation:
		txn.Replace(v.Update(entity.RelationPatch{Tags: tags}))
	}
}

// DiscardTags removes every key in discardSet (and any empty-string
// valued tag) from every entity d reports modified or created (spec.md
// §4.5 discardTags).
func DiscardTags(g *graph.Graph, d *diff.Diff, discardSet map[string]bool) *graph.Graph {
	return g.Update(func(txn *graph.Txn) {
		for _, c := range d.Modified() {
			discardOne(txn, c.ID, discardSet)
		}
		for _, c := range d.Created() {
			discardOne(txn, c.ID, discardSet)
		}
	})
}

func discardOne(txn *graph.Txn, id entity.ID, discardSet map[string]bool) {
	e, ok := txn.HasEntity(id)
	if !ok {
		return
	}
	replaceTags(txn, id, e.Tags().WithoutKeys(discardSet))
}
