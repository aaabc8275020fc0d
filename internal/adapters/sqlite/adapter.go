// Package sqlite provides a SQLite-backed implementation of the preset repository port.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Adapter implements ports.PresetRepository for SQLite
type Adapter struct {
	db *sql.DB
}

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// Every pooled connection to ":memory:" would open its own empty database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}
	if err := adapter.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) GetByID(ctx context.Context, id string) (domain.Preset, error) {
	row := a.db.QueryRowContext(ctx, "SELECT id, name, root, created_at FROM presets WHERE id = ?", id)
	p, err := scanPreset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Preset{}, domain.ErrNotFound
		}
		return domain.Preset{}, fmt.Errorf("failed to load preset: %w", err)
	}

	pitches, err := a.loadPitches(ctx, []string{p.ID})
	if err != nil {
		return domain.Preset{}, err
	}
	p.Pitches = pitches[p.ID]
	if p.Pitches == nil {
		p.Pitches = []string{}
	}
	return p, nil
}

// List returns every preset, newest first.
func (a *Adapter) List(ctx context.Context) ([]domain.Preset, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT id, name, root, created_at FROM presets ORDER BY created_at DESC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	defer rows.Close()

	presets := []domain.Preset{}
	ids := []string{}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preset: %w", err)
		}
		presets = append(presets, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate presets: %w", err)
	}
	if len(presets) == 0 {
		return presets, nil
	}

	pitches, err := a.loadPitches(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range presets {
		presets[i].Pitches = pitches[presets[i].ID]
		if presets[i].Pitches == nil {
			presets[i].Pitches = []string{}
		}
	}
	return presets, nil
}

func (a *Adapter) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM presets").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count presets: %w", err)
	}
	return n, nil
}

// Create inserts p inside the same transaction that counts the stored
// presets, so concurrent creates cannot overshoot limit.
func (a *Adapter) Create(ctx context.Context, p domain.Preset, limit int) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM presets").Scan(&n); err != nil {
		return fmt.Errorf("failed to count presets: %w", err)
	}
	if n >= limit {
		return domain.ErrPresetLimit
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO presets (id, name, root, created_at) VALUES (?, ?, ?, ?)",
		p.ID, p.Name, p.Root, p.CreatedAt.UnixNano()); err != nil {
		return fmt.Errorf("failed to insert preset: %w", err)
	}
	if err := insertPitches(ctx, tx, p); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

func insertPitches(ctx context.Context, tx *sql.Tx, p domain.Preset) error {
	stmtPitch, err := tx.PrepareContext(ctx, `
		INSERT INTO preset_pitches (preset_id, position, pitch)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmtPitch.Close()

	for i, name := range p.Pitches {
		if _, err := stmtPitch.ExecContext(ctx, p.ID, i, name); err != nil {
			return fmt.Errorf("failed to save pitch %s: %w", name, err)
		}
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, id string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM presets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM preset_pitches WHERE preset_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete preset pitches: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(s scanner) (domain.Preset, error) {
	var (
		p       domain.Preset
		root    sql.NullString
		created int64
	)
	if err := s.Scan(&p.ID, &p.Name, &root, &created); err != nil {
		return domain.Preset{}, err
	}
	if root.Valid {
		p.Root = root.String
	}
	p.CreatedAt = time.Unix(0, created).UTC()
	return p, nil
}

func (a *Adapter) loadPitches(ctx context.Context, ids []string) (map[string][]string, error) {
	query := "SELECT preset_id, pitch FROM preset_pitches WHERE preset_id IN (?" +
		strings.Repeat(", ?", len(ids)-1) + ") ORDER BY preset_id, position ASC"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load preset pitches: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string, len(ids))
	for rows.Next() {
		var id, pitch string
		if err := rows.Scan(&id, &pitch); err != nil {
			return nil, fmt.Errorf("failed to scan preset pitch: %w", err)
		}
		out[id] = append(out[id], pitch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate preset pitches: %w", err)
	}
	return out, nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS presets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS preset_pitches (
		preset_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		pitch TEXT NOT NULL,
		PRIMARY KEY (preset_id, position),
		FOREIGN KEY(preset_id) REFERENCES presets(id) ON DELETE CASCADE
	);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}

	// root arrived after the first schema.
	if _, err := a.db.Exec("ALTER TABLE presets ADD COLUMN root TEXT"); err != nil {
		if !isDuplicateColumnError(err) {
			return err
		}
	}
	return nil
}

func isDuplicateColumnError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "duplicate column") || strings.Contains(err.Error(), "already exists"))
}
