// Package archive records every decision cycle and intervention outcome
// to SQLite for offline review. The decision path never reads it; it only
// feeds the CLI's history views.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vthunder/nudge/internal/types"
)

// DB wraps the archive database
type DB struct {
	db *sql.DB
}

// CycleRow is one archived decision cycle
type CycleRow struct {
	ID         int64     `json:"id"`
	At         time.Time `json:"at"`
	IdleSec    int       `json:"idle_sec"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	Reasoning  string    `json:"reasoning"`
	Confidence int       `json:"confidence"`
	Intervened bool      `json:"intervened"`
	Effective  *bool     `json:"effective,omitempty"`
}

// Open opens or creates the archive database under statePath
func Open(statePath string) (*DB, error) {
	dbPath := filepath.Join(statePath, "archive.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}

	a := &DB{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return a, nil
}

func (a *DB) migrate() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS cycles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TIMESTAMP NOT NULL,
			idle_sec INTEGER NOT NULL,
			kind TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			reasoning TEXT NOT NULL DEFAULT '',
			confidence INTEGER NOT NULL DEFAULT 0,
			intervened INTEGER NOT NULL DEFAULT 0,
			effective INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_cycles_at ON cycles(at);
	`)
	return err
}

// RecordCycle archives one decision cycle
func (a *DB) RecordCycle(idleSec int, d types.AgentDecision) error {
	_, err := a.db.Exec(
		`INSERT INTO cycles (at, idle_sec, kind, message, reasoning, confidence, intervened)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now(), idleSec, string(d.Kind), d.Message, d.Reasoning, d.Confidence, d.ShouldIntervene,
	)
	if err != nil {
		return fmt.Errorf("archive cycle: %w", err)
	}
	return nil
}

// MarkLastEffective sets the effectiveness flag on the most recent
// intervened cycle that has not been scored yet.
func (a *DB) MarkLastEffective(effective bool) error {
	_, err := a.db.Exec(
		`UPDATE cycles SET effective = ?
		 WHERE id = (SELECT id FROM cycles WHERE intervened = 1 AND effective IS NULL
		             ORDER BY id DESC LIMIT 1)`,
		effective,
	)
	if err != nil {
		return fmt.Errorf("mark effective: %w", err)
	}
	return nil
}

// Recent returns the latest n cycles, newest first
func (a *DB) Recent(n int) ([]CycleRow, error) {
	rows, err := a.db.Query(
		`SELECT id, at, idle_sec, kind, message, reasoning, confidence, intervened, effective
		 FROM cycles ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var out []CycleRow
	for rows.Next() {
		var r CycleRow
		var effective sql.NullBool
		if err := rows.Scan(&r.ID, &r.At, &r.IdleSec, &r.Kind, &r.Message,
			&r.Reasoning, &r.Confidence, &r.Intervened, &effective); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		if effective.Valid {
			v := effective.Bool
			r.Effective = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Interventions returns the latest n intervened cycles, newest first
func (a *DB) Interventions(n int) ([]CycleRow, error) {
	rows, err := a.db.Query(
		`SELECT id, at, idle_sec, kind, message, reasoning, confidence, intervened, effective
		 FROM cycles WHERE intervened = 1 ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query interventions: %w", err)
	}
	defer rows.Close()

	var out []CycleRow
	for rows.Next() {
		var r CycleRow
		var effective sql.NullBool
		if err := rows.Scan(&r.ID, &r.At, &r.IdleSec, &r.Kind, &r.Message,
			&r.Reasoning, &r.Confidence, &r.Intervened, &effective); err != nil {
			return nil, fmt.Errorf("scan intervention: %w", err)
		}
		if effective.Valid {
			v := effective.Bool
			r.Effective = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database
func (a *DB) Close() error {
	return a.db.Close()
}
