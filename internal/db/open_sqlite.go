package db

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Get(ctx context.Context, path string) (Record, error) {
	var (
		r       Record
		updated int64
	)
	row := s.db.QueryRowContext(ctx, `SELECT path, digest, updated_at FROM formatted WHERE path = ?`, path)
	if err := row.Scan(&r.Path, &r.Digest, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	r.UpdatedAt = time.Unix(0, updated).UTC()
	return r, nil
}

func (s *sqliteStore) Put(ctx context.Context, r Record) error {
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO formatted(path, digest, updated_at) VALUES(?, ?, ?)
ON CONFLICT(path) DO UPDATE SET digest = excluded.digest, updated_at = excluded.updated_at`,
		r.Path, r.Digest, r.UpdatedAt.UnixNano())
	return err
}

func (s *sqliteStore) Delete(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM formatted WHERE path = ?`, path)
	return err
}

func (s *sqliteStore) Close() error { return s.db.Close() }

// openSQLite connects to a SQLite database using modernc.org/sqlite driver and ensures schema exists.
func openSQLite(ctx context.Context, path string) (*sqliteStore, error) {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	dbh, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer at a time; parallel format jobs share the handle
	dbh.SetMaxOpenConns(1)
	if _, err := dbh.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = dbh.Close()
		return nil, err
	}
	if err := migrate(ctx, dbh); err != nil {
		_ = dbh.Close()
		return nil, err
	}
	return &sqliteStore{db: dbh}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS formatted (
  path TEXT PRIMARY KEY,
  digest TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);`)
	return err
}
