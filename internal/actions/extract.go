package actions

import (
	"strings"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/geo"
	"github.com/osmtopo/osmtopo/internal/graph"
)

// areaStructuralKeys, indoorStructuralKeys, and buildingStructuralKeys
// never move to an extracted point feature: they describe the shape
// carrying the tags, not the thing the tags describe (spec.md §4.5
// extract).
var areaStructuralKeys = map[string]bool{"area": true}
var indoorStructuralKeys = map[string]bool{"indoor": true, "level": true, "repeat_on": true}
var buildingStructuralKeys = map[string]bool{
	"building": true, "building:levels": true, "building:material": true,
	"building:part": true, "roof:shape": true, "roof:levels": true,
}

// retainedOnBothKeys stay on the source after extraction even though
// they also copy to the new point (spec.md §4.5: "addresses and a
// small retention set duplicated on both").
var retainedOnBothKeys = map[string]bool{"name": true}

// Extract pulls a standalone point feature out of id. A Node with
// parents is replaced in those parents by a freshly created node, and
// the original becomes the unreferenced standalone feature. A Way or
// Relation instead spawns a brand new node at its pole of
// inaccessibility, carrying a copy of its non-structural tags, which
// are then stripped from the source (spec.md §4.5 extract).
func Extract(g *graph.Graph, id entity.ID, cfg Config) *graph.Graph {
	return g.Update(func(txn *graph.Txn) {
		e := must(txn, id)
		switch v := e.(type) {
		case *entity.Node:
			extractNode(txn, v, cfg)
		case *entity.Way:
			extractFeature(txn, v, v.Tags(), cfg, func(tags entity.Tags) {
				txn.Replace(v.Update(entity.WayPatch{Tags: tags}))
			})
		case *entity.Relation:
			extractFeature(txn, v, v.Tags(), cfg, func(tags entity.Tags) {
				txn.Replace(v.Update(entity.RelationPatch{Tags: tags}))
			})
		}
	})
}

func extractNode(txn *graph.Txn, n *entity.Node, cfg Config) {
	parentWays := append([]entity.ID(nil), txn.ParentWays(n.ID())...)
	parentRels := append([]entity.ID(nil), txn.ParentRelations(n.ID())...)
	if len(parentWays) == 0 && len(parentRels) == 0 {
		return
	}

	replacement := entity.NewNode(cfg.newNodeID(), n.Loc(), n.Tags())
	txn.Replace(replacement)

	for _, wID := range parentWays {
		e, ok := txn.HasEntity(wID)
		if !ok {
			continue
		}
		w, ok := e.(*entity.Way)
		if !ok {
			continue
		}
		txn.Replace(w.ReplaceNode(n.ID(), replacement.ID()))
	}
	for _, rID := range parentRels {
		e, ok := txn.HasEntity(rID)
		if !ok {
			continue
		}
		r, ok := e.(*entity.Relation)
		if !ok {
			continue
		}
		txn.Replace(r.ReplaceMember(n.ID(), replacement.ID(), false))
	}
}

func extractFeature(txn *graph.Txn, e entity.Entity, tags entity.Tags, cfg Config, applyStripped func(entity.Tags)) {
	moved := extractableTags(tags)
	if len(moved) == 0 {
		return
	}
	loc := poleOrCenter(e)
	newNode := entity.NewNode(cfg.newNodeID(), loc, moved)
	txn.Replace(newNode)
	applyStripped(stripExtractedTags(tags, moved))
}

func extractableTags(tags entity.Tags) entity.Tags {
	isBuilding := tags["building"] != ""
	out := make(entity.Tags)
	for k, v := range tags {
		if areaStructuralKeys[k] || indoorStructuralKeys[k] {
			continue
		}
		if isBuilding && buildingStructuralKeys[k] {
			continue
		}
		out[k] = v
	}
	return out
}

func stripExtractedTags(tags entity.Tags, moved entity.Tags) entity.Tags {
	out := tags.Clone()
	for k := range moved {
		if retainedOnBothKeys[k] || strings.HasPrefix(k, "addr:") {
			continue
		}
		delete(out, k)
	}
	return out
}

func poleOrCenter(e entity.Entity) geo.LngLat {
	gm := e.Geoms()
	if gm == nil || !gm.Computed() {
		return geo.LngLat{}
	}
	if gm.Pole != nil {
		return *gm.Pole
	}
	return gm.Extent.Center()
}
