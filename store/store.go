// Package store persists fused page snapshots to SQLite: the element list of
// each snapshot plus its embedding vectors, keyed by snapshot id.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pagefuse/pagefuse/dbopen"
	"github.com/pagefuse/pagefuse/element"
	"github.com/pagefuse/pagefuse/embedding"
)

// ErrNotFound is returned when a snapshot id does not exist.
var ErrNotFound = errors.New("store: snapshot not found")

// Snapshot is one persisted fusion result's identity.
type Snapshot struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	CapturedAt time.Time `json:"captured_at"`
}

// Store reads and writes snapshots. Safe for concurrent use; writes run in
// transactions with busy retry.
type Store struct {
	db *sql.DB
}

// New wraps an already-opened database. The schema must have been applied
// (dbopen.WithSchema(store.Schema)).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) the snapshot database at path.
func Open(path string) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Save writes a snapshot and its elements atomically, replacing any previous
// snapshot with the same id. vectors may be nil or shorter than elements;
// missing vectors are stored as NULL.
func (s *Store) Save(ctx context.Context, snap Snapshot, elements []*element.Element, vectors [][]float32) error {
	return dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM snapshots WHERE id = ?`, snap.ID); err != nil {
			return fmt.Errorf("store: delete previous snapshot: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (id, url, captured_at) VALUES (?, ?, ?)`,
			snap.ID, snap.URL, snap.CapturedAt.Unix()); err != nil {
			return fmt.Errorf("store: insert snapshot: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO elements (snapshot_id, idx, payload, embedding) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare element insert: %w", err)
		}
		defer stmt.Close()

		for i, el := range elements {
			payload, err := json.Marshal(el)
			if err != nil {
				return fmt.Errorf("store: marshal element %d: %w", i, err)
			}
			var blob []byte
			if i < len(vectors) && vectors[i] != nil {
				blob = embedding.SerializeVector(vectors[i])
			}
			if _, err := stmt.ExecContext(ctx, snap.ID, i, string(payload), blob); err != nil {
				return fmt.Errorf("store: insert element %d: %w", i, err)
			}
		}
		return nil
	})
}

// Load reads a snapshot's elements and vectors in stored order.
func (s *Store) Load(ctx context.Context, id string) (Snapshot, []*element.Element, [][]float32, error) {
	var snap Snapshot
	var capturedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, url, captured_at FROM snapshots WHERE id = ?`, id).
		Scan(&snap.ID, &snap.URL, &capturedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, nil, nil, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, nil, nil, fmt.Errorf("store: load snapshot: %w", err)
	}
	snap.CapturedAt = time.Unix(capturedAt, 0).UTC()

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload, embedding FROM elements WHERE snapshot_id = ? ORDER BY idx`, id)
	if err != nil {
		return Snapshot{}, nil, nil, fmt.Errorf("store: load elements: %w", err)
	}
	defer rows.Close()

	var elements []*element.Element
	var vectors [][]float32
	for rows.Next() {
		var payload string
		var blob []byte
		if err := rows.Scan(&payload, &blob); err != nil {
			return Snapshot{}, nil, nil, fmt.Errorf("store: scan element: %w", err)
		}
		var el element.Element
		if err := json.Unmarshal([]byte(payload), &el); err != nil {
			return Snapshot{}, nil, nil, fmt.Errorf("store: unmarshal element: %w", err)
		}
		elements = append(elements, &el)
		if blob != nil {
			vectors = append(vectors, embedding.DeserializeVector(blob))
		} else {
			vectors = append(vectors, nil)
		}
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, nil, nil, fmt.Errorf("store: iterate elements: %w", err)
	}
	return snap, elements, vectors, nil
}

// List returns snapshot identities newest first.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, captured_at FROM snapshots ORDER BY captured_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var capturedAt int64
		if err := rows.Scan(&snap.ID, &snap.URL, &capturedAt); err != nil {
			return nil, fmt.Errorf("store: scan snapshot: %w", err)
		}
		snap.CapturedAt = time.Unix(capturedAt, 0).UTC()
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Delete removes a snapshot and its elements.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := dbopen.Exec(ctx, s.db, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
