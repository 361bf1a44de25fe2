package entity

// Member is one element of a Relation's ordered member list (spec.md
// §3).
type Member struct {
	ID   ID
	Role string
}

// Relation is an ordered set of member references plus role (spec.md
// §3).
type Relation struct {
	id      ID
	version int
	hasVer  bool
	tags    Tags
	visible bool
	members []Member
	geoms   *Geoms
}

// NewRelation constructs a newborn relation.
func NewRelation(id ID, members []Member, tags Tags) *Relation {
	ms := make([]Member, len(members))
	copy(ms, members)
	return &Relation{id: id, members: ms, tags: tags.Clone(), visible: true}
}

func (r *Relation) ID() ID               { return r.id }
func (r *Relation) Version() (int, bool) { return r.version, r.hasVer }
func (r *Relation) Tags() Tags           { return r.tags }
func (r *Relation) Visible() bool        { return r.visible }
func (r *Relation) Geoms() *Geoms        { return r.geoms }
func (r *Relation) Members() []Member    { return r.members }

func (r *Relation) withGeoms(g *Geoms) Entity {
	clone := *r
	clone.geoms = g
	return &clone
}

// RelationPatch describes a change to apply via Relation.Update.
type RelationPatch struct {
	Tags    Tags
	Visible *bool
	Members []Member
}

// Update returns a new Relation with patch applied and its version
// bumped.
func (r *Relation) Update(patch RelationPatch) *Relation {
	clone := *r
	clone.version = bump(r.version, r.hasVer)
	clone.hasVer = true
	clone.geoms = nil
	if patch.Tags != nil {
		clone.tags = patch.Tags.Clone()
	}
	if patch.Visible != nil {
		clone.visible = *patch.Visible
	}
	if patch.Members != nil {
		ms := make([]Member, len(patch.Members))
		copy(ms, patch.Members)
		clone.members = ms
	}
	return &clone
}

func (r *Relation) MergeTags(other Tags) *Relation {
	return r.Update(RelationPatch{Tags: r.tags.Merge(other)})
}

func (r *Relation) HasInterestingTags() bool {
	return r.tags.HasInteresting()
}

// IsDegenerate reports whether the relation has no members (spec.md
// §Glossary Degenerate).
func (r *Relation) IsDegenerate() bool {
	return len(r.members) == 0
}

// MemberByRole returns the first member with the given role.
func (r *Relation) MemberByRole(role string) (Member, bool) {
	for _, m := range r.members {
		if m.Role == role {
			return m, true
		}
	}
	return Member{}, false
}

// MembersByRole returns every member with the given role, in order.
func (r *Relation) MembersByRole(role string) []Member {
	var out []Member
	for _, m := range r.members {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

// MemberByID returns the first member referencing id.
func (r *Relation) MemberByID(id ID) (Member, bool) {
	for _, m := range r.members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// ReplaceMember substitutes every member referencing from with to,
// keeping the original role. If keepIfSameID is true and to already
// appears elsewhere in the member list, the duplicate introduced by the
// substitution is dropped instead of creating a repeated member.
func (r *Relation) ReplaceMember(from, to ID, keepIfSameID bool) *Relation {
	alreadyHasTo := false
	if keepIfSameID {
		for _, m := range r.members {
			if m.ID == to {
				alreadyHasTo = true
				break
			}
		}
	}

	ms := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		if m.ID != from {
			ms = append(ms, m)
			continue
		}
		if alreadyHasTo {
			continue
		}
		ms = append(ms, Member{ID: to, Role: m.Role})
	}
	return r.Update(RelationPatch{Members: ms})
}

// RemoveMembersWithID removes every member referencing id.
func (r *Relation) RemoveMembersWithID(id ID) *Relation {
	ms := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		if m.ID != id {
			ms = append(ms, m)
		}
	}
	return r.Update(RelationPatch{Members: ms})
}

// IsMultipolygon reports type=multipolygon (spec.md §Glossary
// Multipolygon relation).
func (r *Relation) IsMultipolygon() bool {
	return r.tags["type"] == "multipolygon"
}

// IsRestriction reports type=restriction (spec.md §Glossary Turn
// restriction).
func (r *Relation) IsRestriction() bool {
	return r.tags["type"] == "restriction"
}

// IsConnectivity reports type=connectivity.
func (r *Relation) IsConnectivity() bool {
	return r.tags["type"] == "connectivity"
}

// RestrictionType returns the `restriction` (or `restriction:<vehicle>`)
// tag value, if this is a restriction relation.
func (r *Relation) RestrictionType() (string, bool) {
	if !r.IsRestriction() {
		return "", false
	}
	if v, ok := r.tags["restriction"]; ok {
		return v, true
	}
	for k, v := range r.tags {
		if len(k) > len("restriction:") && k[:len("restriction:")] == "restriction:" {
			return v, true
		}
	}
	return "", false
}

// IsValidRestriction reports whether this restriction relation has
// exactly one `from` way, one `to` way, and one or more `via` nodes or
// ways forming a connected chain between them (spec.md §4.1
// isValidRestriction).
func (r *Relation) IsValidRestriction(g GraphView) bool {
	if !r.IsRestriction() {
		return false
	}
	from := r.MembersByRole("from")
	to := r.MembersByRole("to")
	via := r.MembersByRole("via")
	if len(from) != 1 || len(to) != 1 || len(via) == 0 {
		return false
	}
	if from[0].ID.Type != KindWay || to[0].ID.Type != KindWay {
		return false
	}
	return r.IsComplete(g)
}

// IsComplete reports whether every member entity this relation
// references actually resolves in g (spec.md §4.1 isComplete).
func (r *Relation) IsComplete(g GraphView) bool {
	for _, m := range r.members {
		if _, ok := g.HasEntity(m.ID); !ok {
			return false
		}
	}
	return true
}

// Geometry always derives {relation} for Relation entities (spec.md
// §4.1); rendering as an area/line is a presentation detail of its
// resolved multipolygon geometry, not a distinct GeometryKind here.
func (r *Relation) Geometry(g GraphView) GeometryKind {
	return GeometryRelation
}
