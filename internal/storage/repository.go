// Package storage persists the uploaded record set to SQLite so an upload
// survives a process restart. The store in memory stays authoritative; this
// is a mirror that is rewritten wholesale on every upload.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cloudspend/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteMirror struct {
	db *sql.DB
}

func NewSQLiteMirror(dbPath string) (*SQLiteMirror, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteMirror{db: db}, nil
}

func (m *SQLiteMirror) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// SaveSet replaces the mirrored set with the given records in one
// transaction. Position preserves arrival order so a restore round-trips.
func (m *SQLiteMirror) SaveSet(ctx context.Context, records []core.SpendRecord) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM spend_records`); err != nil {
		return fmt.Errorf("clear spend records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO spend_records
			(id, position, spend_date, cloud_provider, service, team, env, cost_usd, account_id, project_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.ID, i, r.Date.String(), string(r.Provider), r.Service,
			r.Team, string(r.Env), r.CostUSD, r.AccountID, r.ProjectID)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Spend records mirrored to SQLite", "count", len(records))
	return nil
}

// LoadSet returns the mirrored records in their stored order, or an empty
// slice when nothing has been mirrored yet.
func (m *SQLiteMirror) LoadSet(ctx context.Context) ([]core.SpendRecord, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, spend_date, cloud_provider, service, team, env, cost_usd, account_id, project_id
		FROM spend_records
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query spend records: %w", err)
	}
	defer rows.Close()

	var records []core.SpendRecord
	for rows.Next() {
		var r core.SpendRecord
		var date, provider, env string
		if err := rows.Scan(&r.ID, &date, &provider, &r.Service, &r.Team, &env, &r.CostUSD, &r.AccountID, &r.ProjectID); err != nil {
			return nil, fmt.Errorf("scan spend record: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		r.Date = d
		r.Provider = core.Provider(provider)
		r.Env = core.Environment(env)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spend records: %w", err)
	}
	return records, nil
}

// Clear drops the mirrored set, returning the mirror to its pre-upload state.
func (m *SQLiteMirror) Clear(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM spend_records`); err != nil {
		return fmt.Errorf("clear spend records: %w", err)
	}
	slog.InfoContext(ctx, "Mirrored spend records cleared")
	return nil
}
