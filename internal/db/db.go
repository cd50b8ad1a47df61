// Package db persists which files are already formatted so repeated runs can
// skip them.
package db

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// Record ties a file path to the digest of its formatted content.
type Record struct {
	Path      string
	Digest    string
	UpdatedAt time.Time
}

// Store is the format cache.
type Store interface {
	Get(ctx context.Context, path string) (Record, error)
	Put(ctx context.Context, r Record) error
	Delete(ctx context.Context, path string) error
	Close() error
}

var ErrNotFound = errors.New("not found")

// Open returns a Store for dsn: empty or ":memory:" gives an in-memory
// store, anything else (optionally prefixed with sqlite://) a sqlite file.
func Open(ctx context.Context, dsn string) (Store, error) {
	if dsn == "" || dsn == ":memory:" {
		return newMemStore(), nil
	}
	s, err := openSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Digest hashes content together with the settings that produced it, so a
// change of printer or parser invalidates old records.
func Digest(content []byte, settings ...string) string {
	h := blake3.New()
	for _, s := range settings {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
