package snapshot

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/halverson/orrery/internal/state"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a run or snapshot does not exist.
var ErrNotFound = errors.New("snapshot: not found")

// Store persists snapshots to SQLite, keyed by run token. It uses WAL
// mode with a single writer connection, which is how SQLite wants to be
// driven from one process.
type Store struct {
	db *sql.DB
}

// OpenStore creates or opens the snapshot database at path. Safe to call
// repeatedly; pragmas and schema are idempotent.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateRun registers a run token. Idempotent per token.
func (s *Store) CreateRun(ctx context.Context, token, scene string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (token, scene, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(token) DO NOTHING`,
		token, scene, time.Now().UnixMicro())
	if err != nil {
		return fmt.Errorf("create run %s: %w", token, err)
	}
	return nil
}

// SaveSnapshot persists one snapshot under a run token. The state is
// stored as JSON alongside its content fingerprint.
func (s *Store) SaveSnapshot(ctx context.Context, runToken string, snap *Snapshot) error {
	fingerprint, err := Fingerprint(snap.State)
	if err != nil {
		return err
	}
	stateJSON, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("marshal snapshot %d: %w", snap.ID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots
		   (run_token, snapshot_id, label, sim_time, step, fingerprint, state_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runToken, snap.ID, snap.Label, snap.Time, snap.Metadata.Step,
		fingerprint, stateJSON, snap.Timestamp)
	if err != nil {
		return fmt.Errorf("save snapshot %d for run %s: %w", snap.ID, runToken, err)
	}
	return nil
}

// LoadSnapshot reads one snapshot back. Returns ErrNotFound if absent.
func (s *Store) LoadSnapshot(ctx context.Context, runToken string, id uint64) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT label, sim_time, step, state_json, created_at
		 FROM snapshots WHERE run_token = ? AND snapshot_id = ?`,
		runToken, id)

	var (
		label     string
		simTime   float64
		step      uint64
		stateJSON []byte
		createdAt int64
	)
	if err := row.Scan(&label, &simTime, &step, &stateJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: snapshot %d in run %s", ErrNotFound, id, runToken)
		}
		return nil, fmt.Errorf("load snapshot %d: %w", id, err)
	}

	var rs state.RuntimeState
	if err := json.Unmarshal(stateJSON, &rs); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %d: %w", id, err)
	}

	return &Snapshot{
		ID:        id,
		Time:      simTime,
		Timestamp: createdAt,
		State:     &rs,
		Label:     label,
		Metadata: Metadata{
			Step:           step,
			ObjectCount:    len(rs.World.Objects),
			ParameterCount: rs.World.Parameters.Len(),
			SizeBytes:      estimateSize(&rs),
		},
	}, nil
}

// StoredSnapshot is one row of ListSnapshots, without the full state.
type StoredSnapshot struct {
	ID          uint64
	Label       string
	Time        float64
	Step        uint64
	Fingerprint string
}

// ListSnapshots returns metadata for every snapshot of a run, in id order.
func (s *Store) ListSnapshots(ctx context.Context, runToken string) ([]StoredSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT snapshot_id, label, sim_time, step, fingerprint
		 FROM snapshots WHERE run_token = ? ORDER BY snapshot_id`,
		runToken)
	if err != nil {
		return nil, fmt.Errorf("list snapshots for run %s: %w", runToken, err)
	}
	defer rows.Close()

	var out []StoredSnapshot
	for rows.Next() {
		var rec StoredSnapshot
		if err := rows.Scan(&rec.ID, &rec.Label, &rec.Time, &rec.Step, &rec.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListRuns returns all run tokens, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT token FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		out = append(out, token)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and all its snapshots.
func (s *Store) DeleteRun(ctx context.Context, runToken string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE token = ?`, runToken); err != nil {
		return fmt.Errorf("delete run %s: %w", runToken, err)
	}
	return nil
}
