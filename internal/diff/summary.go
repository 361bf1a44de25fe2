package diff

import "github.com/osmtopo/osmtopo/internal/entity"

// Summary returns the user-facing edit list: geometry-only changes on
// uninteresting vertices are collapsed into a modification of their
// parent way, and creation/deletion of an uninteresting vertex with a
// parent way is suppressed entirely (spec.md §4.3).
func (d *Diff) Summary() []Change {
	byID := make(map[entity.ID]Change, len(d.changes))
	for id, c := range d.changes {
		byID[id] = c
	}

	var suppressed []entity.ID
	touchedWays := make(map[entity.ID]bool)

	for id, c := range byID {
		if id.Type != entity.KindNode {
			continue
		}

		vg := d.head
		if c.Kind == ChangeDeleted {
			vg = d.base
		}
		if vg == nil {
			continue
		}

		n, ok := vertexNode(c)
		if !ok || !n.IsVertex(vg) {
			continue
		}

		switch c.Kind {
		case ChangeModified:
			if c.Aspect == AspectGeometry {
				suppressed = append(suppressed, id)
				for _, w := range vg.ParentWays(id) {
					touchedWays[w] = true
				}
			}
		case ChangeCreated, ChangeDeleted:
			if len(vg.ParentWays(id)) > 0 {
				suppressed = append(suppressed, id)
			}
		}
	}

	for _, id := range suppressed {
		delete(byID, id)
	}
	for wID := range touchedWays {
		if _, already := byID[wID]; already {
			continue
		}
		if w, ok := d.head.HasEntity(wID); ok {
			byID[wID] = Change{ID: wID, Kind: ChangeModified, Aspect: AspectGeometry, Head: w}
		}
	}

	out := make([]Change, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	sortChanges(out)
	return out
}

// vertexNode returns the Node a Change concerns, whichever side holds
// it (Head for created/modified, Base for deleted).
func vertexNode(c Change) (*entity.Node, bool) {
	if c.Head != nil {
		if n, ok := c.Head.(*entity.Node); ok {
			return n, true
		}
	}
	if c.Base != nil {
		if n, ok := c.Base.(*entity.Node); ok {
			return n, true
		}
	}
	return nil, false
}
