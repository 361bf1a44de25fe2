// Package entity implements the OSM entity sum type (Node, Way,
// Relation, Changeset): value-immutable variants sharing id, version,
// tags, visibility and a lazily maintained geometry cache, per the
// data model in SPEC_FULL.md §3/§4.1.
package entity

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Kind discriminates the entity variants.
type Kind byte

const (
	KindNode      Kind = 'n'
	KindWay       Kind = 'w'
	KindRelation  Kind = 'r'
	KindChangeset Kind = 'c'
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindWay:
		return "way"
	case KindRelation:
		return "relation"
	case KindChangeset:
		return "changeset"
	default:
		return "unknown"
	}
}

// ID is an OSM entity identifier: a type character plus a signed
// numeric reference, per spec.md §6 (`<typechar><signedNumber>`). A
// negative Ref marks a locally created entity not yet uploaded.
type ID struct {
	Type Kind
	Ref  int64
}

// Local reports whether this id was created client-side (not yet
// assigned an upstream numeric id).
func (id ID) Local() bool { return id.Ref < 0 }

func (id ID) String() string {
	return string(rune(id.Type)) + strconv.FormatInt(id.Ref, 10)
}

// ParseID parses the `<typechar><signedNumber>` scheme from spec.md §6.
func ParseID(s string) (ID, error) {
	if len(s) < 2 {
		return ID{}, fmt.Errorf("entity: invalid id %q", s)
	}
	k := Kind(s[0])
	switch k {
	case KindNode, KindWay, KindRelation, KindChangeset:
	default:
		return ID{}, fmt.Errorf("entity: invalid id type %q in %q", string(s[0]), s)
	}
	ref, err := strconv.ParseInt(s[1:], 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("entity: invalid id %q: %w", s, err)
	}
	return ID{Type: k, Ref: ref}, nil
}

// idSeeds holds, per kind, the next negative ref to hand out for a
// locally created entity. Seeded from a uuid so two freshly started
// editor sessions don't start counting from the same small negative
// numbers, reducing the odds of accidental id collisions when merging
// locally authored changesets offline.
var idSeeds = map[Kind]*int64{
	KindNode:      seedCounter(),
	KindWay:       seedCounter(),
	KindRelation:  seedCounter(),
	KindChangeset: seedCounter(),
}

func seedCounter() *int64 {
	u := uuid.New()
	// Fold the uuid's low 63 bits into a bounded, clearly-negative
	// starting point so generated ids stay recognizably "local" and
	// don't all start at -1 across sessions.
	hi := int64(u[8])<<56 | int64(u[9])<<48 | int64(u[10])<<40 | int64(u[11])<<32 |
		int64(u[12])<<24 | int64(u[13])<<16 | int64(u[14])<<8 | int64(u[15])
	if hi < 0 {
		hi = -hi
	}
	start := -(hi%1_000_000 + 1)
	return &start
}

// NewLocalID returns a fresh negative id for the given kind.
func NewLocalID(k Kind) ID {
	counter, ok := idSeeds[k]
	if !ok {
		c := seedCounter()
		idSeeds[k] = c
		counter = c
	}
	ref := atomic.AddInt64(counter, -1)
	return ID{Type: k, Ref: ref}
}
