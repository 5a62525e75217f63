package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/klabast/wb-services/treatment-calendar/internal/program"
)

const snapshotSchema = `CREATE TABLE IF NOT EXISTS snapshot (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	snapshot_id TEXT NOT NULL,
	accepted_at TEXT NOT NULL,
	program     TEXT NOT NULL
)`

// SQLitePersister keeps the snapshot in a single-row SQLite table.
type SQLitePersister struct {
	db *sql.DB
}

// OpenSQLitePersister opens (or creates) the database at path. ":memory:"
// gives an in-memory database.
func OpenSQLitePersister(path string) (*SQLitePersister, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec(snapshotSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshot table: %w", err)
	}
	return &SQLitePersister{db: db}, nil
}

// Load reads the stored row.
func (p *SQLitePersister) Load(ctx context.Context) (*program.Snapshot, error) {
	var id, acceptedAt, raw string
	err := p.db.QueryRowContext(ctx,
		`SELECT snapshot_id, accepted_at, program FROM snapshot WHERE id = 1`,
	).Scan(&id, &acceptedAt, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}

	snapID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot id: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, acceptedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing accepted_at: %w", err)
	}
	prog, err := program.ParseProgram([]byte(raw))
	if err != nil {
		return nil, err
	}
	return &program.Snapshot{ID: snapID, Program: prog, Raw: []byte(raw), AcceptedAt: at}, nil
}

// Save replaces the stored row.
func (p *SQLitePersister) Save(ctx context.Context, snap *program.Snapshot) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO snapshot (id, snapshot_id, accepted_at, program) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			snapshot_id = excluded.snapshot_id,
			accepted_at = excluded.accepted_at,
			program     = excluded.program`,
		snap.ID.String(), snap.AcceptedAt.Format(time.RFC3339Nano), string(snap.Raw))
	if err != nil {
		return fmt.Errorf("upserting snapshot: %w", err)
	}
	return nil
}

// Close closes the database.
func (p *SQLitePersister) Close() error {
	return p.db.Close()
}
