// apps/go-server/internal/score/sqlite.go
//
// SQLite-backed Repository.
// Responsibilities:
//   - Opening the database file with safe defaults (WAL, busy timeout).
//   - Applying embedded migrations from sql/*.sql (idempotent, recorded in _migrations).
//   - Reading/writing the single best-score row in the kv table.

package score

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

//go:embed sql/*.sql
var migrations embed.FS

// SQLiteRepository stores the record as one row of the kv table.
type SQLiteRepository struct {
	db *sql.DB
}

/**
 * OpenSQLite opens (and creates if missing) the scores database and applies
 * migrations.
 *
 * - Ensures the parent directory exists for relative paths (e.g. ./data/scores.db).
 * - Configures busy timeout and WAL journaling.
 * - Uses a single connection; SQLite serializes writers anyway.
 */
func OpenSQLite(path string) (*SQLiteRepository, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error { return r.db.Close() }

/**
 * migrate applies the embedded SQL migrations.
 *
 * - Uses a _migrations table to track applied files.
 * - Executes each sql/*.sql file in lexical order, each in its own transaction.
 * - Skips files that were already applied.
 */
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "sql/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// Load reads and decodes the record. A missing row is an empty mapping;
// a corrupt value decodes to whatever entries are still valid.
func (r *SQLiteRepository) Load(ctx context.Context) (BestScores, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key=?`, Key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return BestScores{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", Key, err)
	}
	return Decode([]byte(raw)), nil
}

// Store upserts the record.
func (r *SQLiteRepository) Store(ctx context.Context, scores BestScores) error {
	raw, err := Encode(scores)
	if err != nil {
		return err
	}
	return r.put(ctx, string(raw))
}

func (r *SQLiteRepository) put(ctx context.Context, value string) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO kv (key, value, updated_at)
        VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
        ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		Key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", Key, err)
	}
	return nil
}
