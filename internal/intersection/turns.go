package intersection

import "github.com/osmtopo/osmtopo/internal/entity"

// TurnClassification records how a turn relates to an active
// restriction (spec.md §4.4).
type TurnClassification string

const (
	ClassNone       TurnClassification = ""
	ClassDirect     TurnClassification = "direct"
	ClassAlongOnly  TurnClassification = "along_only"
	ClassIndirect   TurnClassification = "indirect"
)

// Turn is one enumerated path through the virtual graph from a FROM
// way to a TO way.
type Turn struct {
	Path           []entity.ID // way ids, FROM-first
	FromWay        entity.ID
	ToWay          entity.ID
	ViaNodes       []entity.ID
	ViaWays        []entity.ID
	UTurn          bool
	Classification TurnClassification
	RestrictionID  entity.ID
}

// Enumerate performs the depth-bounded DFS from fromWay, alternating
// way→vertex→way, bounded by maxVia intermediate way hops (spec.md
// §4.4). A single U-turn (repeat within the first three path elements)
// is tolerated; any other repeated way terminates that branch.
func (vg *VirtualGraph) Enumerate(fromWay entity.ID, maxVia int) []Turn {
	active := vg.restrictionsFrom(fromWay)
	var out []Turn
	vg.dfs(dfsState{ways: []entity.ID{fromWay}, vertex: vg.start}, active, maxVia, &out)
	return out
}

func (vg *VirtualGraph) restrictionsFrom(fromWay entity.ID) []restrictionCtx {
	var out []restrictionCtx
	for _, r := range vg.restrictions {
		if r.fromWay == fromWay {
			out = append(out, r)
		}
	}
	return out
}

type dfsState struct {
	ways      []entity.ID
	viaTrail  []entity.ID
	vertex    entity.ID
	uturnUsed bool
}

func (vg *VirtualGraph) dfs(state dfsState, restrictions []restrictionCtx, maxVia int, out *[]Turn) {
	if len(state.ways)-1 > maxVia {
		return
	}

	for _, wID := range vg.g.ParentWays(state.vertex) {
		role, ok := vg.roles[wID]
		if !ok || (!role.Via && !role.To) {
			continue
		}
		e, ok := vg.g.HasEntity(wID)
		if !ok {
			continue
		}
		w, ok := e.(*entity.Way)
		if !ok {
			continue
		}

		uturn := false
		if containsID(state.ways, wID) {
			if state.uturnUsed || !withinFirstThree(state.ways, wID) {
				continue
			}
			uturn = true
		}

		farEnd := otherEnd(w, state.vertex)
		if farEnd == state.vertex {
			continue
		}

		classification, prune, matched := classifyAgainst(restrictions, state.vertex, wID, state.viaTrail)
		if prune {
			continue
		}

		viaNodes, viaWays := splitViaTrail(append(state.viaTrail, state.vertex))
		turn := Turn{
			Path:           append(append([]entity.ID{}, state.ways...), wID),
			FromWay:        state.ways[0],
			ToWay:          wID,
			ViaNodes:       viaNodes,
			ViaWays:        viaWays,
			UTurn:          uturn,
			Classification: classification,
			RestrictionID:  matched,
		}
		*out = append(*out, turn)

		vg.dfs(dfsState{
			ways:      append(append([]entity.ID{}, state.ways...), wID),
			viaTrail:  append(append([]entity.ID{}, state.viaTrail...), state.vertex),
			vertex:    farEnd,
			uturnUsed: state.uturnUsed || uturn,
		}, restrictions, maxVia, out)
	}
}

// classifyAgainst checks nextWay against every active restriction,
// returning the strongest classification encountered, whether the
// branch must be pruned, and which restriction (if any) produced it.
func classifyAgainst(restrictions []restrictionCtx, vertex, nextWay entity.ID, viaTrail []entity.ID) (TurnClassification, bool, entity.ID) {
	var class TurnClassification
	var prune bool
	var matched entity.ID

	for _, r := range restrictions {
		c, p := classifyOne(r, vertex, nextWay, viaTrail)
		if c == ClassNone {
			continue
		}
		class = c
		if p {
			prune = true
			matched = r.rel.ID()
		} else if c == ClassDirect || c == ClassAlongOnly {
			matched = r.rel.ID()
		}
	}
	return class, prune, matched
}

// classifyOne matches a single restriction's via chain against the
// path traversed so far (vertex appended to viaTrail), per spec.md
// §4.4: an exact, complete match against a TO way is "direct" (no_*
// terminates it, only_* requires it); a partial prefix match mid-chain
// is "along_only" for an only_* restriction still being walked, else
// "indirect".
func classifyOne(ctx restrictionCtx, vertex, nextWay entity.ID, viaTrail []entity.ID) (TurnClassification, bool) {
	viaSoFar := append(append([]entity.ID{}, viaTrail...), vertex)
	n := len(viaSoFar)
	if n > len(ctx.viaIDs) {
		return ClassNone, false
	}
	for i := 0; i < n; i++ {
		if viaSoFar[i] != ctx.viaIDs[i] {
			return ClassNone, false
		}
	}

	if n < len(ctx.viaIDs) {
		if ctx.kind == "only" {
			return ClassAlongOnly, false
		}
		return ClassIndirect, false
	}

	if nextWay == ctx.toWay {
		return ClassDirect, ctx.kind == "no"
	}
	if ctx.kind == "only" {
		return ClassAlongOnly, true
	}
	return ClassIndirect, false
}

func otherEnd(w *entity.Way, vertex entity.ID) entity.ID {
	if w.First() == vertex {
		return w.Last()
	}
	return w.First()
}

func containsID(ids []entity.ID, target entity.ID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func withinFirstThree(ids []entity.ID, target entity.ID) bool {
	limit := 3
	if len(ids) < limit {
		limit = len(ids)
	}
	for i := 0; i < limit; i++ {
		if ids[i] == target {
			return true
		}
	}
	return false
}

func splitViaTrail(trail []entity.ID) (nodes, ways []entity.ID) {
	for _, id := range trail {
		if id.Type == entity.KindNode {
			nodes = append(nodes, id)
		} else {
			ways = append(ways, id)
		}
	}
	return nodes, ways
}
