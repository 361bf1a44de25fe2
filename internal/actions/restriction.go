package actions

import (
	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
	"github.com/osmtopo/osmtopo/internal/intersection"
)

// RestrictTurn creates a turn-restriction relation for turn, with
// members ordered FROM (way), VIA (the node, or way chain, the turn
// passed through), TO (way) (spec.md §4.5 restrictTurn).
func RestrictTurn(g *graph.Graph, turn intersection.Turn, restrictionType string, cfg Config) *graph.Graph {
	return g.Update(func(txn *graph.Txn) {
		via := turn.ViaNodes
		if len(via) == 0 {
			via = turn.ViaWays
		}

		members := make([]entity.Member, 0, 2+len(via))
		members = append(members, entity.Member{ID: turn.FromWay, Role: "from"})
		for _, v := range via {
			members = append(members, entity.Member{ID: v, Role: "via"})
		}
		members = append(members, entity.Member{ID: turn.ToWay, Role: "to"})

		rel := entity.NewRelation(cfg.restrictionID(), members, entity.Tags{
			"type":        "restriction",
			"restriction": restrictionType,
		})
		txn.Replace(rel)
	})
}
