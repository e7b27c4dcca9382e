// Package snapshot persists a resolved object graph to SQLite and rebuilds it.
//
// A snapshot stores each object in its wire encoding together with the
// references that were still pending when it was saved. Loading replays the
// objects through the same resolvers the client uses, then reports every required
// reference that remains unresolved.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/graph"
	"github.com/zero-day-ai/gridsync/wire"

	_ "modernc.org/sqlite"
)

// DB is a snapshot database.
type DB struct {
	db *sql.DB
}

// Open opens or creates the snapshot database at path. Use ":memory:" for a
// private in-memory database.
func Open(path string) (*DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	s := &DB{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS objects (
		mrid TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		data JSON NOT NULL,
		saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS refs (
		source_id TEXT NOT NULL,
		relationship TEXT NOT NULL,
		target_id TEXT NOT NULL,
		PRIMARY KEY (source_id, relationship, target_id),
		FOREIGN KEY (source_id) REFERENCES objects(mrid) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value JSON NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_objects_kind ON objects(kind);
	CREATE INDEX IF NOT EXISTS idx_refs_target ON refs(target_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *DB) Close() error {
	return s.db.Close()
}

// Save replaces the snapshot with the contents of store and returns the number
// of objects written.
func (s *DB) Save(ctx context.Context, store *graph.Store) (int, error) {
	encoded := make(map[string]*wire.Object, store.Len())
	var order []string
	store.Range(func(obj cim.IdentifiedObject) bool {
		encoded[obj.MRID()] = wire.Encode(obj)
		order = append(order, obj.MRID())
		return true
	})

	for _, target := range store.Outstanding(graph.OutstandingOptions{}) {
		for _, ref := range store.Pending(target) {
			if o, ok := encoded[ref.Source.MRID()]; ok {
				o.References = append(o.References, graph.Reference{
					Relationship: ref.Resolver.Name(),
					TargetID:     target,
				})
			}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM refs`, `DELETE FROM objects`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("failed to clear snapshot: %w", err)
		}
	}

	insertObject, err := tx.PrepareContext(ctx, `INSERT INTO objects (mrid, kind, data) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insertObject.Close()

	insertRef, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO refs (source_id, relationship, target_id) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insertRef.Close()

	for _, mrid := range order {
		o := encoded[mrid]
		data, err := json.Marshal(o)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal %s: %w", mrid, err)
		}
		if _, err := insertObject.ExecContext(ctx, o.MRID, string(o.Kind), data); err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", mrid, err)
		}
		for _, ref := range o.References {
			if _, err := insertRef.ExecContext(ctx, o.MRID, ref.Relationship, ref.TargetID); err != nil {
				return 0, fmt.Errorf("failed to insert reference of %s: %w", mrid, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return len(order), nil
}

// Load adds every saved object to store and returns how many were added.
//
// Objects that fail to decode or conflict with what store already holds are
// skipped and reported. After all objects are in, every required reference still
// pending is reported as an UnresolvedRequiredReference error.
func (s *DB) Load(ctx context.Context, store *graph.Store) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mrid, data FROM objects ORDER BY mrid`)
	if err != nil {
		return 0, fmt.Errorf("failed to query objects: %w", err)
	}
	defer rows.Close()

	var (
		added int
		errs  []error
	)
	for rows.Next() {
		var (
			mrid string
			data []byte
		)
		if err := rows.Scan(&mrid, &data); err != nil {
			return added, fmt.Errorf("failed to scan object: %w", err)
		}

		var o wire.Object
		if err := json.Unmarshal(data, &o); err != nil {
			errs = append(errs, gridsync.NewValidationError("snapshot.Load",
				fmt.Errorf("failed to unmarshal %s: %w", mrid, err)))
			continue
		}
		obj, refs, err := wire.Decode(&o)
		if err != nil {
			errs = append(errs, gridsync.NewValidationError("snapshot.Load", err).
				WithContext(map[string]any{"mrid": mrid}))
			continue
		}

		ok, err := store.AddWithReferences(obj, refs)
		if ok {
			added++
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if err := rows.Err(); err != nil {
		return added, fmt.Errorf("failed to iterate objects: %w", err)
	}

	if err := store.CheckRequired(); err != nil {
		errs = append(errs, err)
	}
	return added, errors.Join(errs...)
}

// Count returns the number of saved objects per kind.
func (s *DB) Count(ctx context.Context) (map[cim.Kind]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM objects GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count objects: %w", err)
	}
	defer rows.Close()

	counts := make(map[cim.Kind]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[cim.Kind(kind)] = n
	}
	return counts, rows.Err()
}

// Referencing returns the mRIDs of saved objects that reference target.
func (s *DB) Referencing(ctx context.Context, target string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT source_id FROM refs WHERE target_id = ? ORDER BY source_id`, target)
	if err != nil {
		return nil, fmt.Errorf("failed to query references: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan reference: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveMetadata records the catalogue metadata the snapshot was taken from.
func (s *DB) SaveMetadata(ctx context.Context, md *wire.Metadata) error {
	data, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES ('catalogue', ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	return nil
}

// LoadMetadata returns the saved catalogue metadata, or nil when none was saved.
func (s *DB) LoadMetadata(ctx context.Context) (*wire.Metadata, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = 'catalogue'`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	var md wire.Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &md, nil
}
