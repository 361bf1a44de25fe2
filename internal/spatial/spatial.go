// Package spatial implements the namespaced marker cache spec.md §6
// describes for external collaborators (Mapillary, Osmose, Keep
// Right, MapRoulette, Esri, ...): immutable marker records keyed by
// (serviceID, dataID), a bbox index for visibility queries, and
// tile-set membership tracking, entirely separate from the OSM Graph
// (spec.md §5's "never into the OSM Graph").
package spatial

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
)

// schema follows internal/store.SQLiteStore's table-plus-index shape,
// narrowed to what a marker cache needs: a row-per-marker table
// joined by rowid to an R-Tree virtual table for bbox queries
// (SPEC_FULL.md §5's "the marker cache's bbox index is backed by
// SQLite's R-Tree virtual table"), plus a small tile-membership table.
const schema = `
CREATE TABLE IF NOT EXISTS markers (
	rowid      INTEGER PRIMARY KEY,
	service_id TEXT NOT NULL,
	marker_id  TEXT NOT NULL,
	lng        REAL NOT NULL,
	lat        REAL NOT NULL,
	data       TEXT NOT NULL,
	UNIQUE (service_id, marker_id)
);

CREATE VIRTUAL TABLE IF NOT EXISTS marker_bbox USING rtree(
	id,
	min_lng, max_lng,
	min_lat, max_lat
);

CREATE TABLE IF NOT EXISTS tiles (
	service_id TEXT NOT NULL,
	tile       TEXT NOT NULL,
	PRIMARY KEY (service_id, tile)
);
`

// Marker is one immutable record from an external collaborator:
// location plus an opaque, service-defined payload.
type Marker struct {
	ID   string         `json:"id"`
	Lng  float64        `json:"lng"`
	Lat  float64        `json:"lat"`
	Data map[string]any `json:"data,omitempty"`
}

// Store is a SQLite-backed marker cache shared by every external
// collaborator's service, namespaced by serviceID.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// NewStore opens (creating if absent) a marker cache at dsn. Use
// ":memory:" for a session-scoped cache.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("spatial: open %q: %w", dsn, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("spatial: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// AddData inserts a new marker record; it fails if (serviceID, m.ID)
// already exists, since markers are immutable once added (spec.md
// §6). Use ReplaceData to overwrite an existing record.
func (s *Store) AddData(serviceID string, m Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsert(serviceID, m, false)
}

// ReplaceData inserts or overwrites the marker record at
// (serviceID, m.ID).
func (s *Store) ReplaceData(serviceID string, m Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsert(serviceID, m, true)
}

func (s *Store) upsert(serviceID string, m Marker, replace bool) error {
	dataJSON, err := json.Marshal(m.Data)
	if err != nil {
		return fmt.Errorf("spatial: encode marker %s/%s: %w", serviceID, m.ID, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("spatial: begin: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.Exec(`DELETE FROM marker_bbox WHERE id IN (
			SELECT rowid FROM markers WHERE service_id = ? AND marker_id = ?
		)`, serviceID, m.ID); err != nil {
			return fmt.Errorf("spatial: clear bbox row: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO markers (service_id, marker_id, lng, lat, data)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(service_id, marker_id) DO UPDATE SET lng = excluded.lng, lat = excluded.lat, data = excluded.data
		`, serviceID, m.ID, m.Lng, m.Lat, string(dataJSON)); err != nil {
			return fmt.Errorf("spatial: upsert marker: %w", err)
		}
	} else {
		if _, err := tx.Exec(`
			INSERT INTO markers (service_id, marker_id, lng, lat, data) VALUES (?, ?, ?, ?, ?)
		`, serviceID, m.ID, m.Lng, m.Lat, string(dataJSON)); err != nil {
			return fmt.Errorf("spatial: insert marker %s/%s: %w", serviceID, m.ID, err)
		}
	}

	var rowid int64
	if err := tx.QueryRow(`SELECT rowid FROM markers WHERE service_id = ? AND marker_id = ?`, serviceID, m.ID).Scan(&rowid); err != nil {
		return fmt.Errorf("spatial: locate marker rowid: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO marker_bbox (id, min_lng, max_lng, min_lat, max_lat) VALUES (?, ?, ?, ?, ?)
	`, rowid, m.Lng, m.Lng, m.Lat, m.Lat); err != nil {
		return fmt.Errorf("spatial: index marker bbox: %w", err)
	}

	return tx.Commit()
}

// RemoveData deletes the marker at (serviceID, id), if present.
func (s *Store) RemoveData(serviceID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("spatial: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM marker_bbox WHERE id IN (
		SELECT rowid FROM markers WHERE service_id = ? AND marker_id = ?
	)`, serviceID, id); err != nil {
		return fmt.Errorf("spatial: delete bbox row: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM markers WHERE service_id = ? AND marker_id = ?`, serviceID, id); err != nil {
		return fmt.Errorf("spatial: delete marker: %w", err)
	}
	return tx.Commit()
}

// GetData retrieves one marker by (serviceID, id).
func (s *Store) GetData(serviceID, id string) (Marker, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT marker_id, lng, lat, data FROM markers WHERE service_id = ? AND marker_id = ?`, serviceID, id)
	m, err := scanMarker(row)
	if err == sql.ErrNoRows {
		return Marker{}, false, nil
	}
	if err != nil {
		return Marker{}, false, fmt.Errorf("spatial: get marker %s/%s: %w", serviceID, id, err)
	}
	return m, true, nil
}

// GetVisibleData returns every marker belonging to a tile currently
// tracked as loaded for serviceID (AddTiles), using the bbox index to
// find markers within each tracked tile's extent.
func (s *Store) GetVisibleData(serviceID string) ([]Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT tile FROM tiles WHERE service_id = ?`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("spatial: query tiles: %w", err)
	}
	var tileStrs []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			rows.Close()
			return nil, fmt.Errorf("spatial: scan tile: %w", err)
		}
		tileStrs = append(tileStrs, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []Marker
	for _, ts := range tileStrs {
		tile, err := ParseTile(ts)
		if err != nil {
			return nil, fmt.Errorf("spatial: %w", err)
		}
		minLng, minLat, maxLng, maxLat := tile.Bounds()

		mrows, err := s.db.Query(`
			SELECT m.marker_id, m.lng, m.lat, m.data
			FROM marker_bbox b
			JOIN markers m ON m.rowid = b.id
			WHERE m.service_id = ?
			  AND b.min_lng <= ? AND b.max_lng >= ?
			  AND b.min_lat <= ? AND b.max_lat >= ?
		`, serviceID, maxLng, minLng, maxLat, minLat)
		if err != nil {
			return nil, fmt.Errorf("spatial: query visible markers: %w", err)
		}
		for mrows.Next() {
			m, err := scanMarkerRows(mrows)
			if err != nil {
				mrows.Close()
				return nil, fmt.Errorf("spatial: scan visible marker: %w", err)
			}
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			out = append(out, m)
		}
		if err := mrows.Err(); err != nil {
			mrows.Close()
			return nil, err
		}
		mrows.Close()
	}
	return out, nil
}

// AddTiles marks tiles as loaded for serviceID, so their markers
// become reachable via GetVisibleData.
func (s *Store) AddTiles(serviceID string, tiles ...Tile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("spatial: begin: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tiles {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO tiles (service_id, tile) VALUES (?, ?)`, serviceID, t.String()); err != nil {
			return fmt.Errorf("spatial: add tile %s: %w", t, err)
		}
	}
	return tx.Commit()
}

// HasTile reports whether tile has already been loaded for serviceID.
func (s *Store) HasTile(serviceID string, tile Tile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM tiles WHERE service_id = ? AND tile = ?`, serviceID, tile.String()).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("spatial: query tile: %w", err)
	}
	return true, nil
}

// ClearCache removes every marker and tracked tile for serviceID.
func (s *Store) ClearCache(serviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("spatial: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM marker_bbox WHERE id IN (SELECT rowid FROM markers WHERE service_id = ?)`, serviceID); err != nil {
		return fmt.Errorf("spatial: clear bbox rows: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM markers WHERE service_id = ?`, serviceID); err != nil {
		return fmt.Errorf("spatial: clear markers: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM tiles WHERE service_id = ?`, serviceID); err != nil {
		return fmt.Errorf("spatial: clear tiles: %w", err)
	}
	return tx.Commit()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMarker(row rowScanner) (Marker, error) {
	return scanMarkerRows(row)
}

func scanMarkerRows(row rowScanner) (Marker, error) {
	var m Marker
	var dataJSON string
	if err := row.Scan(&m.ID, &m.Lng, &m.Lat, &dataJSON); err != nil {
		return Marker{}, err
	}
	if dataJSON != "" {
		if err := json.Unmarshal([]byte(dataJSON), &m.Data); err != nil {
			return Marker{}, err
		}
	}
	return m, nil
}
