// Package actions implements the editing action library: pure
// graph-to-graph transformations (some curried on t ∈ [0,1]) plus the
// advisory disabled() precondition predicates that gate them in a UI
// (spec.md §4.5).
package actions

import (
	"fmt"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
)

// Config carries the action layer's named configuration flags (spec.md
// §6 Configuration).
type Config struct {
	// TagnosticRoadCombine permits join/merge to combine highways with
	// conflicting `highway` values when true.
	TagnosticRoadCombine bool
	// AllowUntaggedMembers permits deleteRelation to leave members
	// without interesting tags dangling unreferenced, instead of
	// deleting them, when true. DeleteRelation takes this choice as an
	// explicit parameter and does not read this field.
	AllowUntaggedMembers bool
	// DoDeleteDegenerate recursively deletes parents that become
	// degenerate. DeleteNode and DeleteRelation take this choice as an
	// explicit parameter and do not read this field.
	DoDeleteDegenerate bool
	// NewNodeID and RestrictionID override id generation for
	// deterministic tests; nil means "generate a fresh local id".
	NewNodeID     *entity.ID
	RestrictionID *entity.ID
}

// DefaultConfig returns the conventional defaults: doDeleteDegenerate
// defaults true (spec.md §4.5), the rest false.
func DefaultConfig() Config {
	return Config{DoDeleteDegenerate: true}
}

// must resolves id or panics wrapping graph.ErrEntityNotFound: per
// spec.md §4.5's failure semantics, a missing referent inside an
// action's declared preconditions is a programmer error, not a
// user-visible one, and propagates rather than returning a sentinel
// the caller might silently ignore.
func must(txn *graph.Txn, id entity.ID) entity.Entity {
	e, err := txn.Entity(id)
	if err != nil {
		panic(fmt.Errorf("actions: %w", err))
	}
	return e
}

func (c Config) newNodeID() entity.ID {
	if c.NewNodeID != nil {
		return *c.NewNodeID
	}
	return entity.NewLocalID(entity.KindNode)
}

func (c Config) restrictionID() entity.ID {
	if c.RestrictionID != nil {
		return *c.RestrictionID
	}
	return entity.NewLocalID(entity.KindRelation)
}
