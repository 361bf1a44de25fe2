package graph

import "github.com/osmtopo/osmtopo/internal/entity"

// Txn is the restricted handle mutators passed to Update see: every
// read/write operation Graph exposes, except Commit and Rebase, which
// only the transaction owner may call (spec.md §4.2 update).
type Txn struct {
	g *Graph
}

func (t *Txn) HasEntity(id entity.ID) (entity.Entity, bool) { return t.g.HasEntity(id) }
func (t *Txn) Entity(id entity.ID) (entity.Entity, error)   { return t.g.Entity(id) }
func (t *Txn) ParentWays(id entity.ID) []entity.ID          { return t.g.ParentWays(id) }
func (t *Txn) ParentRelations(id entity.ID) []entity.ID     { return t.g.ParentRelations(id) }
func (t *Txn) ChildNodes(w *entity.Way) ([]*entity.Node, error) {
	return t.g.ChildNodes(w)
}
func (t *Txn) Replace(e entity.Entity) { t.g.Replace(e) }
func (t *Txn) Remove(id entity.ID)     { t.g.Remove(id) }
func (t *Txn) Revert(id entity.ID)     { t.g.Revert(id) }

// Update opens a transaction on a fresh child of g, runs each mutator
// in order, then seals and returns the resulting graph (spec.md §4.2).
func (g *Graph) Update(mutators ...func(*Txn)) *Graph {
	child := g.NewChild()
	txn := &Txn{g: child}
	for _, m := range mutators {
		m(txn)
	}
	return child.Commit()
}
