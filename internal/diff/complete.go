package diff

import "github.com/osmtopo/osmtopo/internal/entity"

// Complete returns the transitive closure of affected entities: for
// each changed way, every node appearing in either revision; for each
// changed multipolygon relation, every member; and, walking upward,
// every parent way and parent relation, recursively. Used to seed
// redraws and re-validation (spec.md §4.3).
//
// Implemented as an explicit work queue, not recursion, per spec.md
// §9's note on bounding stack depth for closure-shaped operations.
func (d *Diff) Complete() []entity.ID {
	seen := make(map[entity.ID]bool, len(d.changes))
	queue := make([]entity.ID, 0, len(d.changes))
	for id := range d.changes {
		seen[id] = true
		queue = append(queue, id)
	}

	enqueue := func(id entity.ID) {
		if !seen[id] {
			seen[id] = true
			queue = append(queue, id)
		}
	}

	for i := 0; i < len(queue); i++ {
		id := queue[i]
		c, changed := d.changes[id]

		if changed {
			switch id.Type {
			case entity.KindWay:
				for _, n := range wayNodeUnion(c) {
					enqueue(n)
				}
			case entity.KindRelation:
				if r := effectiveRelation(c); r != nil && r.IsMultipolygon() {
					for _, m := range r.Members() {
						enqueue(m.ID)
					}
				}
			}
		}

		for _, w := range d.unionParentWays(id) {
			enqueue(w)
		}
		for _, r := range d.unionParentRelations(id) {
			enqueue(r)
		}
	}

	return queue
}

func (d *Diff) unionParentWays(id entity.ID) []entity.ID {
	var out []entity.ID
	if d.head != nil {
		out = append(out, d.head.ParentWays(id)...)
	}
	if d.base != nil {
		for _, w := range d.base.ParentWays(id) {
			out = appendIfAbsent(out, w)
		}
	}
	return out
}

func (d *Diff) unionParentRelations(id entity.ID) []entity.ID {
	var out []entity.ID
	if d.head != nil {
		out = append(out, d.head.ParentRelations(id)...)
	}
	if d.base != nil {
		for _, r := range d.base.ParentRelations(id) {
			out = appendIfAbsent(out, r)
		}
	}
	return out
}

func appendIfAbsent(ids []entity.ID, target entity.ID) []entity.ID {
	for _, id := range ids {
		if id == target {
			return ids
		}
	}
	return append(ids, target)
}

func wayNodeUnion(c Change) []entity.ID {
	var out []entity.ID
	if hw, ok := c.Head.(*entity.Way); ok {
		out = append(out, hw.Nodes()...)
	}
	if bw, ok := c.Base.(*entity.Way); ok {
		for _, n := range bw.Nodes() {
			out = appendIfAbsent(out, n)
		}
	}
	return out
}

func effectiveRelation(c Change) *entity.Relation {
	if hr, ok := c.Head.(*entity.Relation); ok {
		return hr
	}
	if br, ok := c.Base.(*entity.Relation); ok {
		return br
	}
	return nil
}
