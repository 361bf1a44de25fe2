package intersection

import "github.com/osmtopo/osmtopo/internal/geo"

// InferRestrictionType suggests a `restriction` tag value for a
// from-via-to movement (spec.md §4.4 inferRestriction). sameNode is
// true when FROM's vertex and TO's vertex are the literal same node
// (an immediate doubling back). bothOneway and sameViaVertex narrow
// the u-turn band when both legs are oneway ways meeting at a single
// via vertex versus a distinct-vertex via chain.
func InferRestrictionType(via, from, to geo.LngLat, sameNode, bothOneway, sameViaVertex bool) string {
	if sameNode {
		return "no_u_turn"
	}

	// TurnAngleDegrees puts a left turn at 90 and a right turn at 270;
	// mirror it so the buckets below read 90 as a right turn.
	angle := 360 - geo.TurnAngleDegrees(via, from, to)
	if angle >= 360 {
		angle -= 360
	}

	if bothOneway {
		if sameViaVertex && (angle < 23 || angle > 336) {
			return "no_u_turn"
		}
		if !sameViaVertex && (angle < 40 || angle > 319) {
			return "no_u_turn"
		}
	}

	switch {
	case angle < 158:
		return "no_right_turn"
	case angle > 202:
		return "no_left_turn"
	default:
		return "no_straight_on"
	}
}
