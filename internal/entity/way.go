package entity

// areaImplyingKeys are tag keys that, on a closed way without an
// explicit `area=no`, imply the way is an area rather than a closed
// line (spec.md §Glossary Area; modeled on OSM's well-known "area
// keys" convention — building, landuse, etc. always read as areas when
// closed).
var areaImplyingKeys = map[string]bool{
	"building": true, "landuse": true, "leisure": true,
	"amenity": true, "natural": true, "place": true,
	"man_made": true, "boundary": true, "waterway": true,
}

// Way is an ordered sequence of node ids (spec.md §3).
type Way struct {
	id      ID
	version int
	hasVer  bool
	tags    Tags
	visible bool
	nodes   []ID
	geoms   *Geoms
}

// NewWay constructs a newborn way.
func NewWay(id ID, nodes []ID, tags Tags) *Way {
	ns := make([]ID, len(nodes))
	copy(ns, nodes)
	return &Way{id: id, nodes: ns, tags: tags.Clone(), visible: true}
}

func (w *Way) ID() ID               { return w.id }
func (w *Way) Version() (int, bool) { return w.version, w.hasVer }
func (w *Way) Tags() Tags           { return w.tags }
func (w *Way) Visible() bool        { return w.visible }
func (w *Way) Geoms() *Geoms        { return w.geoms }

// Nodes returns the way's child node ids, in order. The returned slice
// must not be mutated by the caller.
func (w *Way) Nodes() []ID { return w.nodes }

func (w *Way) withGeoms(g *Geoms) Entity {
	clone := *w
	clone.geoms = g
	return &clone
}

// WayPatch describes a change to apply via Way.Update.
type WayPatch struct {
	Tags    Tags
	Visible *bool
	Nodes   []ID
}

// Update returns a new Way with patch applied and its version bumped.
func (w *Way) Update(patch WayPatch) *Way {
	clone := *w
	clone.version = bump(w.version, w.hasVer)
	clone.hasVer = true
	clone.geoms = nil
	if patch.Tags != nil {
		clone.tags = patch.Tags.Clone()
	}
	if patch.Visible != nil {
		clone.visible = *patch.Visible
	}
	if patch.Nodes != nil {
		ns := make([]ID, len(patch.Nodes))
		copy(ns, patch.Nodes)
		clone.nodes = ns
	}
	return &clone
}

func (w *Way) MergeTags(other Tags) *Way {
	return w.Update(WayPatch{Tags: w.tags.Merge(other)})
}

func (w *Way) HasInterestingTags() bool {
	return w.tags.HasInteresting()
}

// First returns the way's first node id, or the zero ID if empty.
func (w *Way) First() ID {
	if len(w.nodes) == 0 {
		return ID{}
	}
	return w.nodes[0]
}

// Last returns the way's last node id, or the zero ID if empty.
func (w *Way) Last() ID {
	if len(w.nodes) == 0 {
		return ID{}
	}
	return w.nodes[len(w.nodes)-1]
}

// IsClosed reports whether the way's first and last nodes coincide and
// it has more than one node (spec.md §Glossary Closed way).
func (w *Way) IsClosed() bool {
	return len(w.nodes) > 1 && w.First() == w.Last()
}

// IsArea reports whether this way should render as a filled region:
// closed, and either explicitly tagged `area=yes` or implied by its
// other tags (spec.md §Glossary Area), unless `area=no` overrides.
func (w *Way) IsArea() bool {
	if !w.IsClosed() {
		return false
	}
	if v, ok := w.tags["area"]; ok {
		return v == "yes"
	}
	for k := range w.tags {
		if areaImplyingKeys[k] {
			return true
		}
	}
	return false
}

// DistinctNodeCount returns the number of distinct node ids, counting
// the shared first/last id of a closed way only once.
func (w *Way) DistinctNodeCount() int {
	seen := make(map[ID]bool, len(w.nodes))
	for i, n := range w.nodes {
		if w.IsClosed() && i == len(w.nodes)-1 {
			continue // closing node already counted via the first node
		}
		seen[n] = true
	}
	return len(seen)
}

// IsDegenerate reports whether the way has too few distinct nodes to
// be valid: fewer than 2 in general, fewer than 3 for an area (spec.md
// §3, §Glossary Degenerate).
func (w *Way) IsDegenerate() bool {
	min := 2
	if w.IsArea() {
		min = 3
	}
	return w.DistinctNodeCount() < min
}

// IsSided reports whether this way has an inherent left/right
// orientation (coastline, cliff, retaining_wall, kerb, ...).
func (w *Way) IsSided() bool {
	return IsSided(w.tags)
}

// IsRoad reports whether this way is a road for intersection/turn
// analysis purposes (spec.md §4.4).
func (w *Way) IsRoad() bool {
	return IsRoadClass(w.tags)
}

// AddNode inserts id at index (or appends if index is negative or
// beyond the end), per spec.md §4.1 addNode.
func (w *Way) AddNode(id ID, index int) *Way {
	ns := make([]ID, 0, len(w.nodes)+1)
	if index < 0 || index > len(w.nodes) {
		index = len(w.nodes)
	}
	ns = append(ns, w.nodes[:index]...)
	ns = append(ns, id)
	ns = append(ns, w.nodes[index:]...)
	return w.Update(WayPatch{Nodes: ns})
}

// RemoveNode removes every occurrence of id, collapsing any adjacent
// duplicates that result (spec.md §4.1 removeNode).
func (w *Way) RemoveNode(id ID) *Way {
	ns := make([]ID, 0, len(w.nodes))
	for _, n := range w.nodes {
		if n == id {
			continue
		}
		if len(ns) > 0 && ns[len(ns)-1] == n {
			continue
		}
		ns = append(ns, n)
	}
	return w.Update(WayPatch{Nodes: ns})
}

// ReplaceNode substitutes every occurrence of from with to.
func (w *Way) ReplaceNode(from, to ID) *Way {
	ns := make([]ID, len(w.nodes))
	for i, n := range w.nodes {
		if n == from {
			ns[i] = to
		} else {
			ns[i] = n
		}
	}
	return w.Update(WayPatch{Nodes: ns})
}

// UpdateNode replaces the node id at a specific index.
func (w *Way) UpdateNode(id ID, index int) *Way {
	if index < 0 || index >= len(w.nodes) {
		return w
	}
	ns := make([]ID, len(w.nodes))
	copy(ns, w.nodes)
	ns[index] = id
	return w.Update(WayPatch{Nodes: ns})
}

// Unclose drops the duplicated closing node, if present.
func (w *Way) Unclose() *Way {
	if !w.IsClosed() {
		return w
	}
	ns := make([]ID, len(w.nodes)-1)
	copy(ns, w.nodes[:len(w.nodes)-1])
	return w.Update(WayPatch{Nodes: ns})
}

// Close appends a duplicate of the first node to close the ring, if
// not already closed.
func (w *Way) Close() *Way {
	if w.IsClosed() || len(w.nodes) == 0 {
		return w
	}
	ns := make([]ID, len(w.nodes)+1)
	copy(ns, w.nodes)
	ns[len(ns)-1] = w.nodes[0]
	return w.Update(WayPatch{Nodes: ns})
}

// Geometry derives {line, area} per spec.md §4.1.
func (w *Way) Geometry(g GraphView) GeometryKind {
	if w.IsArea() {
		return GeometryArea
	}
	return GeometryLine
}
