package entity

import "github.com/osmtopo/osmtopo/internal/geo"

// GeometryKind is the derived geometry classification from spec.md
// §4.1 (`geometry(graph)`): point, vertex, line, area, or relation.
type GeometryKind string

const (
	GeometryPoint    GeometryKind = "point"
	GeometryVertex   GeometryKind = "vertex"
	GeometryLine     GeometryKind = "line"
	GeometryArea     GeometryKind = "area"
	GeometryRelation GeometryKind = "relation"
)

// Geoms is the lazily maintained geometry cache each entity carries
// (spec.md §3): projected/world coordinates, extent, and — for areas —
// the pole of inaccessibility. It is recomputed at commit boundaries
// for entities appearing in a difference (spec.md §4.2 commit).
type Geoms struct {
	computed bool
	Extent   geo.Extent
	Pole     *geo.LngLat // areas/relations only
}

// Computed reports whether the cache has been populated since the last
// invalidation.
func (g *Geoms) Computed() bool {
	return g != nil && g.computed
}

// NewGeoms constructs a populated geometry cache. Used by internal/graph
// at commit boundaries, after recomputing an entity's extent (and pole
// of inaccessibility, for areas and multipolygons).
func NewGeoms(extent geo.Extent, pole *geo.LngLat) *Geoms {
	return &Geoms{computed: true, Extent: extent, Pole: pole}
}

// GraphView is the narrow slice of Graph that geometry derivation
// needs. Entity depends on it instead of importing internal/graph
// directly, keeping the dependency one-directional (Graph imports
// Entity, not vice versa).
type GraphView interface {
	HasEntity(id ID) (Entity, bool)
	ParentWays(id ID) []ID
	ParentRelations(id ID) []ID
}

// Entity is the common capability every OSM variant exposes (spec.md
// §3, §9 "common Data capability trait").
type Entity interface {
	ID() ID
	Version() (int, bool) // ok=false means "undefined" (newborn)
	Tags() Tags
	Visible() bool
	Geoms() *Geoms

	// Geometry derives this entity's display geometry kind given the
	// graph it lives in (spec.md §4.1).
	Geometry(g GraphView) GeometryKind

	// withGeoms returns a shallow copy of the entity with a new geometry
	// cache; used internally by Graph.commit to refresh derived
	// geometry without bumping the edit version.
	withGeoms(*Geoms) Entity
}

// bump returns v+1, treating an undefined version as 0.
func bump(v int, ok bool) int {
	if !ok {
		return 1
	}
	return v + 1
}
