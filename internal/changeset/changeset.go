// Package changeset serializes a computed diff into the OsmChange wire
// format (spec.md §6 OsmChange output): an XML document with
// create/modify/delete sections, entities grouped by type within each,
// and create-set relations topologically sorted so none precedes a
// referenced relation also being created.
package changeset

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"

	"github.com/osmtopo/osmtopo/internal/bufpool"
	"github.com/osmtopo/osmtopo/internal/diff"
	"github.com/osmtopo/osmtopo/internal/entity"
)

// Options configures XML emission.
type Options struct {
	// Generator names the producing application in the
	// osmChange/@generator attribute. Empty defaults to "osmtopo".
	Generator string
}

const defaultGenerator = "osmtopo"
const osmChangeVersion = "0.6"

// Build renders d as an OsmChange document.
func Build(d *diff.Diff, opts Options) ([]byte, error) {
	generator := opts.Generator
	if generator == "" {
		generator = defaultGenerator
	}

	created := d.Created()
	modified := d.Modified()
	deleted := d.Deleted()

	createGroup, err := buildGroup(created, true)
	if err != nil {
		return nil, fmt.Errorf("changeset: %w", err)
	}
	modifyGroup, err := buildGroup(modified, false)
	if err != nil {
		return nil, fmt.Errorf("changeset: %w", err)
	}
	deleteGroup := buildDeleteGroup(deleted)

	doc := xmlOsmChange{
		Version:   osmChangeVersion,
		Generator: generator,
	}
	if len(created) > 0 {
		doc.Create = createGroup
	}
	if len(modified) > 0 {
		doc.Modify = modifyGroup
	}
	if len(deleted) > 0 {
		doc.Delete = deleteGroup
	}

	buf := bufpool.Get()
	defer bufpool.Put(buf)
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("changeset: %w", err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// buildGroup renders changes in node, way, relation order. When
// sortRelations is true (the create group), relations are additionally
// topologically sorted so none precedes a referenced relation also
// present in the same group.
func buildGroup(changes []diff.Change, sortRelations bool) (*xmlGroup, error) {
	g := &xmlGroup{}
	var relChanges []diff.Change
	for _, c := range changes {
		e := c.Head
		if e == nil {
			e = c.Base
		}
		switch v := e.(type) {
		case *entity.Node:
			g.Nodes = append(g.Nodes, toXMLNode(v))
		case *entity.Way:
			g.Ways = append(g.Ways, toXMLWay(v))
		case *entity.Relation:
			relChanges = append(relChanges, c)
		}
	}

	if sortRelations {
		ordered, err := topoSortRelations(relChanges)
		if err != nil {
			return nil, err
		}
		relChanges = ordered
	}
	for _, c := range relChanges {
		g.Relations = append(g.Relations, toXMLRelation(c.Head.(*entity.Relation)))
	}
	return g, nil
}

// buildDeleteGroup renders changes in relation, way, node order, the
// reverse of create/modify, so that members are never deleted before
// their parents (spec.md §6).
func buildDeleteGroup(changes []diff.Change) *xmlDeleteGroup {
	g := &xmlDeleteGroup{IfUnused: "true"}
	for _, c := range changes {
		switch v := c.Base.(type) {
		case *entity.Relation:
			g.Relations = append(g.Relations, toXMLRelation(v))
		}
	}
	for _, c := range changes {
		switch v := c.Base.(type) {
		case *entity.Way:
			g.Ways = append(g.Ways, toXMLWay(v))
		}
	}
	for _, c := range changes {
		switch v := c.Base.(type) {
		case *entity.Node:
			g.Nodes = append(g.Nodes, toXMLNode(v))
		}
	}
	return g
}

// topoSortRelations orders relChanges via Kahn's algorithm over the
// "references" edges confined to the set itself, so a relation is
// never emitted before a relation it references that is also being
// created. Ties fall back to id order; a reference cycle within the
// set is reported as an error.
func topoSortRelations(relChanges []diff.Change) ([]diff.Change, error) {
	byID := make(map[entity.ID]diff.Change, len(relChanges))
	for _, c := range relChanges {
		byID[c.ID] = c
	}

	// inDegree[x] counts how many in-set relations x itself depends on
	// (references as a member) that haven't been emitted yet.
	inDegree := make(map[entity.ID]int, len(relChanges))
	dependents := make(map[entity.ID][]entity.ID) // prerequisite -> dependents
	for id := range byID {
		inDegree[id] = 0
	}
	for id, c := range byID {
		rel := c.Head.(*entity.Relation)
		for _, m := range rel.Members() {
			if m.ID.Type != entity.KindRelation || m.ID == id {
				continue
			}
			if _, ok := byID[m.ID]; !ok {
				continue
			}
			dependents[m.ID] = append(dependents[m.ID], id)
			inDegree[id]++
		}
	}

	var ready []entity.ID
	for id, d := range inDegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}

	var order []entity.ID
	for len(ready) > 0 {
		sortIDs(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, dep := range dependents[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(relChanges) {
		return nil, fmt.Errorf("relation reference cycle among %d relations", len(relChanges)-len(order))
	}

	out := make([]diff.Change, len(order))
	for i, id := range order {
		out[i] = byID[id]
	}
	return out, nil
}

func sortIDs(ids []entity.ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Ref < ids[j].Ref })
}

func toXMLNode(n *entity.Node) xmlNode {
	version, _ := n.Version()
	return xmlNode{
		ID:      n.ID().Ref,
		Version: version,
		Lat:     formatCoord(n.Loc().Lat),
		Lon:     formatCoord(n.Loc().Lng),
		Tags:    toXMLTags(n.Tags()),
	}
}

func toXMLWay(w *entity.Way) xmlWay {
	version, _ := w.Version()
	xw := xmlWay{ID: w.ID().Ref, Version: version, Tags: toXMLTags(w.Tags())}
	for _, id := range w.Nodes() {
		xw.NodeRefs = append(xw.NodeRefs, xmlNodeRef{Ref: id.Ref})
	}
	return xw
}

func toXMLRelation(r *entity.Relation) xmlRelation {
	version, _ := r.Version()
	xr := xmlRelation{ID: r.ID().Ref, Version: version, Tags: toXMLTags(r.Tags())}
	for _, m := range r.Members() {
		xr.Members = append(xr.Members, xmlMember{Type: m.ID.Type.String(), Ref: m.ID.Ref, Role: m.Role})
	}
	return xr
}

func toXMLTags(t entity.Tags) []xmlTag {
	if len(t) == 0 {
		return nil
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]xmlTag, len(keys))
	for i, k := range keys {
		out[i] = xmlTag{K: k, V: t[k]}
	}
	return out
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type xmlOsmChange struct {
	XMLName   xml.Name        `xml:"osmChange"`
	Version   string          `xml:"version,attr"`
	Generator string          `xml:"generator,attr"`
	Create    *xmlGroup       `xml:"create"`
	Modify    *xmlGroup       `xml:"modify"`
	Delete    *xmlDeleteGroup `xml:"delete"`
}

type xmlGroup struct {
	Nodes     []xmlNode     `xml:"node"`
	Ways      []xmlWay      `xml:"way"`
	Relations []xmlRelation `xml:"relation"`
}

type xmlDeleteGroup struct {
	IfUnused  string        `xml:"if-unused,attr"`
	Relations []xmlRelation `xml:"relation"`
	Ways      []xmlWay      `xml:"way"`
	Nodes     []xmlNode     `xml:"node"`
}

type xmlTag struct {
	K string `xml:"k,attr"`
	V string `xml:"v,attr"`
}

type xmlNode struct {
	ID      int64    `xml:"id,attr"`
	Version int      `xml:"version,attr,omitempty"`
	Lat     string   `xml:"lat,attr"`
	Lon     string   `xml:"lon,attr"`
	Tags    []xmlTag `xml:"tag"`
}

type xmlNodeRef struct {
	Ref int64 `xml:"ref,attr"`
}

type xmlWay struct {
	ID       int64        `xml:"id,attr"`
	Version  int          `xml:"version,attr,omitempty"`
	NodeRefs []xmlNodeRef `xml:"nd"`
	Tags     []xmlTag     `xml:"tag"`
}

type xmlMember struct {
	Type string `xml:"type,attr"`
	Ref  int64  `xml:"ref,attr"`
	Role string `xml:"role,attr"`
}

type xmlRelation struct {
	ID      int64       `xml:"id,attr"`
	Version int         `xml:"version,attr,omitempty"`
	Members []xmlMember `xml:"member"`
	Tags    []xmlTag    `xml:"tag"`
}
