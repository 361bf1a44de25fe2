// Package wirejson builds the slim JSON views cmd/topowasm exchanges
// with its JS host, adapted from pkg/response.SlimGraph's
// "only serialize fields the client actually uses" convention —
// generalized from concept-graph nodes/edges to OSM
// nodes/ways/relations and diff changes.
package wirejson

import (
	"encoding/json"
	"fmt"

	"github.com/osmtopo/osmtopo/internal/bufpool"
	"github.com/osmtopo/osmtopo/internal/diff"
	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/geo"
)

// wireEntity is the slim, kind-tagged wire shape for one entity. Only
// the fields relevant to a given kind are populated; the rest are
// omitted by the omitempty tags.
type wireEntity struct {
	ID      string       `json:"id"`
	Kind    string       `json:"kind"`
	Tags    entity.Tags  `json:"tags,omitempty"`
	Visible bool         `json:"visible"`
	Lng     float64      `json:"lng,omitempty"`
	Lat     float64      `json:"lat,omitempty"`
	Nodes   []string     `json:"nodes,omitempty"`
	Members []wireMember `json:"members,omitempty"`
}

type wireMember struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// DecodeEntities parses the host's slim entity array back into
// internal/entity values, the inverse of EncodeEntities, used by
// cmd/topowasm's loadEntities and rebase bridges.
func DecodeEntities(data []byte) ([]entity.Entity, error) {
	var wire []wireEntity
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("wirejson: decode entities: %w", err)
	}

	out := make([]entity.Entity, 0, len(wire))
	for _, w := range wire {
		id, err := entity.ParseID(w.ID)
		if err != nil {
			return nil, fmt.Errorf("wirejson: %w", err)
		}

		switch id.Type {
		case entity.KindNode:
			n := entity.NewNode(id, geo.LngLat{Lng: w.Lng, Lat: w.Lat}, w.Tags)
			visible := w.Visible
			out = append(out, n.Update(entity.NodePatch{Visible: &visible}))
		case entity.KindWay:
			refs := make([]entity.ID, len(w.Nodes))
			for i, s := range w.Nodes {
				refID, err := entity.ParseID(s)
				if err != nil {
					return nil, fmt.Errorf("wirejson: %w", err)
				}
				refs[i] = refID
			}
			wy := entity.NewWay(id, refs, w.Tags)
			visible := w.Visible
			out = append(out, wy.Update(entity.WayPatch{Visible: &visible}))
		case entity.KindRelation:
			members := make([]entity.Member, len(w.Members))
			for i, m := range w.Members {
				memberID, err := entity.ParseID(m.ID)
				if err != nil {
					return nil, fmt.Errorf("wirejson: %w", err)
				}
				members[i] = entity.Member{ID: memberID, Role: m.Role}
			}
			r := entity.NewRelation(id, members, w.Tags)
			visible := w.Visible
			out = append(out, r.Update(entity.RelationPatch{Visible: &visible}))
		default:
			return nil, fmt.Errorf("wirejson: unsupported entity kind %q", string(id.Type))
		}
	}
	return out, nil
}

// EncodeEntities renders entities in the slim wire shape DecodeEntities
// reads back.
func EncodeEntities(entities []entity.Entity) ([]byte, error) {
	wire := make([]wireEntity, len(entities))
	for i, e := range entities {
		wire[i] = toWireEntity(e)
	}
	return marshalPooled(wire)
}

func toWireEntity(e entity.Entity) wireEntity {
	w := wireEntity{
		ID:      e.ID().String(),
		Kind:    e.ID().Type.String(),
		Tags:    e.Tags(),
		Visible: e.Visible(),
	}
	switch v := e.(type) {
	case *entity.Node:
		w.Lng = v.Loc().Lng
		w.Lat = v.Loc().Lat
	case *entity.Way:
		w.Nodes = make([]string, len(v.Nodes()))
		for i, id := range v.Nodes() {
			w.Nodes[i] = id.String()
		}
	case *entity.Relation:
		w.Members = make([]wireMember, len(v.Members()))
		for i, m := range v.Members() {
			w.Members[i] = wireMember{ID: m.ID.String(), Role: m.Role}
		}
	}
	return w
}

// wireChange is the slim view of a diff.Change the host renders in its
// edit list / undo UI.
type wireChange struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Geometry bool   `json:"geometryChanged,omitempty"`
	Props    bool   `json:"propertiesChanged,omitempty"`
}

// EncodeChanges renders a diff summary in the slim wire shape.
func EncodeChanges(changes []diff.Change) ([]byte, error) {
	wire := make([]wireChange, len(changes))
	for i, c := range changes {
		wire[i] = wireChange{
			ID:       c.ID.String(),
			Kind:     changeKindString(c.Kind),
			Geometry: c.Aspect&diff.AspectGeometry != 0,
			Props:    c.Aspect&diff.AspectProperties != 0,
		}
	}
	return marshalPooled(wire)
}

func changeKindString(k diff.ChangeKind) string {
	switch k {
	case diff.ChangeCreated:
		return "created"
	case diff.ChangeDeleted:
		return "deleted"
	case diff.ChangeModified:
		return "modified"
	default:
		return "unknown"
	}
}

// marshalPooled encodes v through a pooled buffer, avoiding a
// throwaway allocation per call on the hot JS-bridge path.
func marshalPooled(v interface{}) ([]byte, error) {
	buf := bufpool.Get()
	defer bufpool.Put(buf)

	enc := json.NewEncoder(buf)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("wirejson: encode: %w", err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
