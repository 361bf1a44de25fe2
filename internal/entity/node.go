package entity

import "github.com/osmtopo/osmtopo/internal/geo"

// Node is a point entity (spec.md §3).
type Node struct {
	id      ID
	version int
	hasVer  bool
	tags    Tags
	visible bool
	loc     geo.LngLat
	geoms   *Geoms
}

// NewNode constructs a newborn node (no version) at loc.
func NewNode(id ID, loc geo.LngLat, tags Tags) *Node {
	return &Node{id: id, loc: loc, tags: tags.Clone(), visible: true}
}

func (n *Node) ID() ID                 { return n.id }
func (n *Node) Version() (int, bool)   { return n.version, n.hasVer }
func (n *Node) Tags() Tags             { return n.tags }
func (n *Node) Visible() bool          { return n.visible }
func (n *Node) Geoms() *Geoms          { return n.geoms }
func (n *Node) Loc() geo.LngLat        { return n.loc }
func (n *Node) withGeoms(g *Geoms) Entity {
	clone := *n
	clone.geoms = g
	return &clone
}

// NodePatch describes a change to apply via Node.Update; nil fields
// leave the corresponding property unchanged.
type NodePatch struct {
	Tags    Tags
	Visible *bool
	Loc     *geo.LngLat
}

// Update returns a new Node with patch applied and its version bumped
// (spec.md §4.1 update).
func (n *Node) Update(patch NodePatch) *Node {
	clone := *n
	clone.version = bump(n.version, n.hasVer)
	clone.hasVer = true
	clone.geoms = nil
	if patch.Tags != nil {
		clone.tags = patch.Tags.Clone()
	}
	if patch.Visible != nil {
		clone.visible = *patch.Visible
	}
	if patch.Loc != nil {
		clone.loc = *patch.Loc
	}
	return &clone
}

// MergeTags returns a new Node whose tags are the union of n's and
// other's (spec.md §4.1 mergeTags).
func (n *Node) MergeTags(other Tags) *Node {
	return n.Update(NodePatch{Tags: n.tags.Merge(other)})
}

// HasInterestingTags reports whether any tag key makes this node
// interesting (spec.md §4.1).
func (n *Node) HasInterestingTags() bool {
	return n.tags.HasInteresting()
}

// Geometry derives {point, vertex} per spec.md §4.1 and §Glossary: a
// node with at least one parent way is a vertex unless it carries
// point-suggesting (interesting) tags of its own, in which case it is
// rendered as a standalone point even while serving as a vertex.
func (n *Node) Geometry(g GraphView) GeometryKind {
	if len(g.ParentWays(n.id)) > 0 && !n.HasInterestingTags() {
		return GeometryVertex
	}
	return GeometryPoint
}

// IsVertex is a convenience wrapper around Geometry for callers that
// only care about the vertex/point distinction.
func (n *Node) IsVertex(g GraphView) bool {
	return n.Geometry(g) == GeometryVertex
}
