// Package history persists numbered checkpoints of a branch's touched
// entities so an editor can restore an older state via
// graph.Graph.Load (spec.md's "load(entities): bulk in-place
// replacement used when restoring from history").
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"

	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/geo"
)

// schema narrows the teacher's notes table (composite (id, version)
// primary key, one row per historical state, no separate "current
// version" table) down to the OSM entity shape this package needs:
// one row per entity per checkpoint instead of one row per note edit.
const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	branch TEXT NOT NULL,
	version INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (branch, version)
);

CREATE TABLE IF NOT EXISTS entity_versions (
	branch TEXT NOT NULL,
	checkpoint_version INTEGER NOT NULL,
	entity_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	lat REAL,
	lon REAL,
	node_refs TEXT,
	members TEXT,
	tags TEXT,
	visible INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (branch, checkpoint_version, entity_id)
);
CREATE INDEX IF NOT EXISTS idx_entity_versions_branch ON entity_versions(branch, checkpoint_version);
`

// Store is a SQLite-backed log of entity-set checkpoints, one branch
// (editing session/layer) per namespace.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// NewStore opens (creating if absent) a checkpoint store at dsn. Use
// ":memory:" for a session-scoped, non-persistent store.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open %q: %w", dsn, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Checkpoint records entities as the next numbered version for
// branch, returning the assigned version (1, 2, 3, ...).
func (s *Store) Checkpoint(branch string, at int64, entities []entity.Entity) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	var maxVersion sql.NullInt64
	if err := tx.QueryRow(`SELECT MAX(version) FROM checkpoints WHERE branch = ?`, branch).Scan(&maxVersion); err != nil {
		return 0, fmt.Errorf("history: query max version: %w", err)
	}
	version := 1
	if maxVersion.Valid {
		version = int(maxVersion.Int64) + 1
	}

	if _, err := tx.Exec(`INSERT INTO checkpoints (branch, version, created_at) VALUES (?, ?, ?)`, branch, version, at); err != nil {
		return 0, fmt.Errorf("history: insert checkpoint: %w", err)
	}

	for _, e := range entities {
		row, err := encodeEntity(e)
		if err != nil {
			return 0, fmt.Errorf("history: encode %s: %w", e.ID(), err)
		}
		if _, err := tx.Exec(`
			INSERT INTO entity_versions
				(branch, checkpoint_version, entity_id, kind, lat, lon, node_refs, members, tags, visible)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, branch, version, e.ID().String(), e.ID().Type.String(), row.lat, row.lon, row.nodeRefs, row.members, row.tags, boolToInt(e.Visible())); err != nil {
			return 0, fmt.Errorf("history: insert entity %s: %w", e.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("history: commit: %w", err)
	}
	return version, nil
}

// Versions returns every checkpoint version recorded for branch, in
// ascending order.
func (s *Store) Versions(branch string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT version FROM checkpoints WHERE branch = ? ORDER BY version ASC`, branch)
	if err != nil {
		return nil, fmt.Errorf("history: query versions: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("history: scan version: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Restore returns every entity recorded at branch/version, ready to
// pass to graph.Graph.Load to splice the working copy back to that
// point.
func (s *Store) Restore(branch string, version int) ([]entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT entity_id, kind, lat, lon, node_refs, members, tags, visible
		FROM entity_versions WHERE branch = ? AND checkpoint_version = ?
	`, branch, version)
	if err != nil {
		return nil, fmt.Errorf("history: query entities: %w", err)
	}
	defer rows.Close()

	var out []entity.Entity
	for rows.Next() {
		var idStr, kind, nodeRefsJSON, membersJSON, tagsJSON string
		var lat, lon sql.NullFloat64
		var visible int
		if err := rows.Scan(&idStr, &kind, &lat, &lon, &nodeRefsJSON, &membersJSON, &tagsJSON, &visible); err != nil {
			return nil, fmt.Errorf("history: scan entity: %w", err)
		}
		id, err := entity.ParseID(idStr)
		if err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		e, err := decodeEntity(id, lat, lon, nodeRefsJSON, membersJSON, tagsJSON, visible != 0)
		if err != nil {
			return nil, fmt.Errorf("history: decode %s: %w", idStr, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type encodedRow struct {
	lat, lon sql.NullFloat64
	nodeRefs string
	members  string
	tags     string
}

func encodeEntity(e entity.Entity) (encodedRow, error) {
	tagsJSON, err := json.Marshal(e.Tags())
	if err != nil {
		return encodedRow{}, err
	}
	row := encodedRow{tags: string(tagsJSON)}

	switch v := e.(type) {
	case *entity.Node:
		row.lat = sql.NullFloat64{Float64: v.Loc().Lat, Valid: true}
		row.lon = sql.NullFloat64{Float64: v.Loc().Lng, Valid: true}
	case *entity.Way:
		refs := make([]string, len(v.Nodes()))
		for i, id := range v.Nodes() {
			refs[i] = id.String()
		}
		b, err := json.Marshal(refs)
		if err != nil {
			return encodedRow{}, err
		}
		row.nodeRefs = string(b)
	case *entity.Relation:
		type wireMember struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		}
		ms := make([]wireMember, len(v.Members()))
		for i, m := range v.Members() {
			ms[i] = wireMember{ID: m.ID.String(), Role: m.Role}
		}
		b, err := json.Marshal(ms)
		if err != nil {
			return encodedRow{}, err
		}
		row.members = string(b)
	}
	return row, nil
}

func decodeEntity(id entity.ID, lat, lon sql.NullFloat64, nodeRefsJSON, membersJSON, tagsJSON string, visible bool) (entity.Entity, error) {
	var tags entity.Tags
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
			return nil, err
		}
	}

	switch id.Type {
	case entity.KindNode:
		n := entity.NewNode(id, geoLngLat(lat, lon), tags)
		return n.Update(entity.NodePatch{Visible: &visible}), nil
	case entity.KindWay:
		var refStrs []string
		if nodeRefsJSON != "" {
			if err := json.Unmarshal([]byte(nodeRefsJSON), &refStrs); err != nil {
				return nil, err
			}
		}
		refs := make([]entity.ID, len(refStrs))
		for i, s := range refStrs {
			parsed, err := entity.ParseID(s)
			if err != nil {
				return nil, err
			}
			refs[i] = parsed
		}
		w := entity.NewWay(id, refs, tags)
		return w.Update(entity.WayPatch{Visible: &visible}), nil
	case entity.KindRelation:
		type wireMember struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		}
		var wms []wireMember
		if membersJSON != "" {
			if err := json.Unmarshal([]byte(membersJSON), &wms); err != nil {
				return nil, err
			}
		}
		members := make([]entity.Member, len(wms))
		for i, wm := range wms {
			parsed, err := entity.ParseID(wm.ID)
			if err != nil {
				return nil, err
			}
			members[i] = entity.Member{ID: parsed, Role: wm.Role}
		}
		r := entity.NewRelation(id, members, tags)
		return r.Update(entity.RelationPatch{Visible: &visible}), nil
	default:
		return nil, fmt.Errorf("unsupported entity kind %q", string(id.Type))
	}
}

func geoLngLat(lat, lon sql.NullFloat64) geo.LngLat {
	return geo.LngLat{Lat: lat.Float64, Lng: lon.Float64}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
