package entity

// Changeset is a metadata envelope with tags only (spec.md §3).
type Changeset struct {
	id      ID
	version int
	hasVer  bool
	tags    Tags
	visible bool
	geoms   *Geoms
}

// NewChangeset constructs a newborn changeset.
func NewChangeset(id ID, tags Tags) *Changeset {
	return &Changeset{id: id, tags: tags.Clone(), visible: true}
}

func (c *Changeset) ID() ID               { return c.id }
func (c *Changeset) Version() (int, bool) { return c.version, c.hasVer }
func (c *Changeset) Tags() Tags           { return c.tags }
func (c *Changeset) Visible() bool        { return c.visible }
func (c *Changeset) Geoms() *Geoms        { return c.geoms }

func (c *Changeset) withGeoms(g *Geoms) Entity {
	clone := *c
	clone.geoms = g
	return &clone
}

// ChangesetPatch describes a change to apply via Changeset.Update.
type ChangesetPatch struct {
	Tags *Tags
}

// Update returns a new Changeset with patch applied and its version
// bumped.
func (c *Changeset) Update(patch ChangesetPatch) *Changeset {
	clone := *c
	clone.version = bump(c.version, c.hasVer)
	clone.hasVer = true
	if patch.Tags != nil {
		clone.tags = patch.Tags.Clone()
	}
	return &clone
}

// Geometry is undefined for changesets; they have no spatial
// representation of their own.
func (c *Changeset) Geometry(g GraphView) GeometryKind {
	return ""
}
