// Package history keeps a SQLite record of counting runs and periodic count
// snapshots.
package history

import (
	"ZoneCountServer/counter"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

var (
	ErrRunNotFound = errors.New("run not found")
	ErrNoSnapshot  = errors.New("no snapshot recorded")
)

type DB struct {
	*sql.DB
}

type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"startedAt"`
	ZonesFile string    `json:"zonesFile"`
	Source    string    `json:"source"`
	Zones     int       `json:"zones"`
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	// PRAGMAs are per connection
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &DB{db}, nil
}

func (db *DB) BeginRun(zonesFile, source string, zones int) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		ZonesFile: zonesFile,
		Source:    source,
		Zones:     zones,
	}
	_, err := db.Exec(
		`INSERT INTO runs (id, started_at, zones_file, source, zone_total) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixNano(), run.ZonesFile, run.Source, run.Zones,
	)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}
	return run, nil
}

// RecordSnapshot stores the counts at snap.Frames. Recording the same frame
// twice replaces the earlier row.
func (db *DB) RecordSnapshot(runID string, snap counter.Snapshot) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM zone_counts WHERE run_id = ? AND frame = ?`, runID, int64(snap.Frames)); err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	_, err = tx.Exec(
		`INSERT OR REPLACE INTO snapshots (run_id, frame, recorded_at) VALUES (?, ?, ?)`,
		runID, int64(snap.Frames), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO zone_counts (run_id, frame, zone_index, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	defer stmt.Close()
	for i, n := range snap.Counts {
		if _, err := stmt.Exec(runID, int64(snap.Frames), i, n); err != nil {
			return fmt.Errorf("record snapshot zone %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Latest returns the snapshot with the highest frame number for runID.
func (db *DB) Latest(runID string) (counter.Snapshot, error) {
	var frame sql.NullInt64
	err := db.QueryRow(`SELECT MAX(frame) FROM snapshots WHERE run_id = ?`, runID).Scan(&frame)
	if err != nil {
		return counter.Snapshot{}, fmt.Errorf("latest snapshot: %w", err)
	}
	if !frame.Valid {
		return counter.Snapshot{}, ErrNoSnapshot
	}

	rows, err := db.Query(
		`SELECT count FROM zone_counts WHERE run_id = ? AND frame = ? ORDER BY zone_index`,
		runID, frame.Int64,
	)
	if err != nil {
		return counter.Snapshot{}, fmt.Errorf("latest snapshot: %w", err)
	}
	defer rows.Close()

	snap := counter.Snapshot{Frames: uint64(frame.Int64), Counts: []int{}}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return counter.Snapshot{}, fmt.Errorf("latest snapshot: %w", err)
		}
		snap.Counts = append(snap.Counts, n)
	}
	return snap, rows.Err()
}

func (db *DB) GetRun(id string) (Run, error) {
	var (
		run     Run
		started int64
	)
	err := db.QueryRow(
		`SELECT id, started_at, zones_file, source, zone_total FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &started, &run.ZonesFile, &run.Source, &run.Zones)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	run.StartedAt = time.Unix(0, started).UTC()
	return run, nil
}

// Runs lists runs newest first.
func (db *DB) Runs(limit int) ([]Run, error) {
	rows, err := db.Query(
		`SELECT id, started_at, zones_file, source, zone_total FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run     Run
			started int64
		)
		if err := rows.Scan(&run.ID, &started, &run.ZonesFile, &run.Source, &run.Zones); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		run.StartedAt = time.Unix(0, started).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
