// Package localstore wraps the embedded SQLite engine whose full
// database file is persisted to a byte-blob backend after every
// mutating statement and reloaded at startup.
//
// The store runs on a single connection with DELETE journaling so the
// database file is always a self-contained image once a statement
// commits. Reads never trigger persistence.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/blob"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DefaultImageKey is the fixed blob key the database image is stored
// under.
const DefaultImageKey = "localstore.db"

// Config configures Open.
type Config struct {
	// Path is where the working database file lives.
	Path string

	// Blob is the durable backend the image is persisted to.
	Blob blob.Store

	// Key is the blob key for the image. Defaults to DefaultImageKey.
	Key string

	// Logger for store activity.
	Logger zerolog.Logger
}

// Store is the embedded relational engine backing offline operation.
// All statement execution is serialized; a write is durable only after
// the image has been persisted to the blob backend.
type Store struct {
	db   *sqlx.DB
	blob blob.Store
	key  string
	path string
	log  zerolog.Logger

	mu sync.Mutex
}

// Open loads the persisted image if one exists, otherwise creates a
// fresh database, applies the fixed schema and persists the first
// image. The caller must Close the store when done.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("localstore: path is required")
	}
	if cfg.Blob == nil {
		return nil, fmt.Errorf("localstore: blob backend is required")
	}
	if cfg.Key == "" {
		cfg.Key = DefaultImageKey
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	image, err := cfg.Blob.Get(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to load database image: %w", err)
	}
	fresh := image == nil
	if !fresh {
		if err := os.WriteFile(cfg.Path, image, 0644); err != nil {
			return nil, fmt.Errorf("failed to restore database image: %w", err)
		}
	} else if err := os.Remove(cfg.Path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to clear stale database file: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", "file:"+cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer, and the image must stay a single self-contained
	// file, so no WAL.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=DELETE",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	s := &Store{
		db:   db,
		blob: cfg.Blob,
		key:  cfg.Key,
		path: cfg.Path,
		log:  cfg.Logger,
	}

	if fresh {
		if _, err := db.Exec(Schema); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		if err := s.persist(); err != nil {
			_ = db.Close()
			return nil, err
		}
		s.log.Info().Str("path", cfg.Path).Msg("initialized fresh local store")
	} else {
		s.log.Info().Str("path", cfg.Path).Int("image_bytes", len(image)).Msg("loaded local store image")
	}

	return s, nil
}

// Close closes the underlying database. The image has already been
// persisted after the last write.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.db = nil
	return nil
}

// Exec runs a mutating statement and persists the image before
// returning. A write is not durable until Exec returns nil.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if err := s.persist(); err != nil {
		return nil, err
	}
	return res, nil
}

// Get runs a single-row query into dest. Returns sql.ErrNoRows when
// the row is absent. Never persists.
func (s *Store) Get(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.GetContext(ctx, dest, query, args...)
}

// Select runs a multi-row query into dest. Never persists.
func (s *Store) Select(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.SelectContext(ctx, dest, query, args...)
}

// InsertRow inserts values into table. Column values are encoded with
// EncodeValue.
func (s *Store) InsertRow(ctx context.Context, table string, values map[string]any) error {
	query, args := buildInsert("INSERT INTO", table, values)
	if _, err := s.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// ReplaceRow inserts values into table, replacing any row that
// collides on a unique key. This is the local half of write-through
// refreshes and keyed upserts.
func (s *Store) ReplaceRow(ctx context.Context, table string, values map[string]any) error {
	query, args := buildInsert("INSERT OR REPLACE INTO", table, values)
	if _, err := s.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to replace into %s: %w", table, err)
	}
	return nil
}

// UpdateRow applies the given column values to the row with the given
// id. Returns sql.ErrNoRows if no row matched.
func (s *Store) UpdateRow(ctx context.Context, table, id string, values map[string]any) error {
	cols := sortedColumns(values)
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		sets = append(sets, fmt.Sprintf("%q = ?", col))
		args = append(args, EncodeValue(values[col]))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", "))
	res, err := s.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteRow removes the row with the given id. Deleting a missing row
// is not an error.
func (s *Store) DeleteRow(ctx context.Context, table, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", table)
	if _, err := s.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// persist snapshots the database file into the blob backend. Callers
// hold s.mu.
func (s *Store) persist() error {
	image, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read database image: %w", err)
	}
	if err := s.blob.Put(s.key, image); err != nil {
		return fmt.Errorf("failed to persist database image: %w", err)
	}
	return nil
}

func buildInsert(verb, table string, values map[string]any) (string, []any) {
	cols := sortedColumns(values)
	quoted := make([]string, 0, len(cols))
	marks := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		quoted = append(quoted, fmt.Sprintf("%q", col))
		marks = append(marks, "?")
		args = append(args, EncodeValue(values[col]))
	}
	query := fmt.Sprintf("%s %s (%s) VALUES (%s)",
		verb, table, strings.Join(quoted, ", "), strings.Join(marks, ", "))
	return query, args
}

func sortedColumns(values map[string]any) []string {
	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// NewID generates an opaque unique record id. Every repository uses
// this same generator.
func NewID() string {
	return uuid.NewString()
}

// BoolToInt converts a boolean to its local-store 0/1 encoding.
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// IntToBool converts the local-store 0/1 encoding back to a boolean.
func IntToBool(i int) bool {
	return i != 0
}

// EncodeValue converts a canonical column value to its local-store
// representation: booleans become 0/1, timestamps RFC3339 text (NULL
// when unset), structured values JSON text.
func EncodeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case model.Bool:
		return BoolToInt(bool(val))
	case bool:
		return BoolToInt(val)
	case model.Timestamp:
		if val.IsZero() {
			return nil
		}
		return val.String()
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return val.UTC().Format(time.RFC3339)
	case model.StringList, model.JSONMap, model.QuestionList, model.AnswerList,
		[]any, map[string]any, []string:
		encoded, err := jsonText(val)
		if err != nil {
			return nil
		}
		return encoded
	default:
		return v
	}
}

func jsonText(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return string(data), nil
}
