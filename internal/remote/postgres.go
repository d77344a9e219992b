package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
)

// DefaultTimeout bounds every remote call. The source behavior left
// timeouts unspecified; an explicit per-call deadline keeps an
// unreachable service from blocking repository operations.
const DefaultTimeout = 10 * time.Second

// Postgres implements Store against the authoritative PostgreSQL
// service.
type Postgres struct {
	db      *sqlx.DB
	timeout time.Duration
}

// OpenPostgres connects to the service and verifies the connection.
func OpenPostgres(dsn string, timeout time.Duration) (*Postgres, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to remote store: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Postgres{db: db, timeout: timeout}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ping implements Store.
func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := p.bound(ctx)
	defer cancel()
	return p.db.PingContext(ctx)
}

// Get implements Store.
func (p *Postgres) Get(ctx context.Context, dest any, table, id string) error {
	return p.getWhere(ctx, dest, table, "id = $1", id)
}

// GetBy implements Store.
func (p *Postgres) GetBy(ctx context.Context, dest any, table, column string, value any) error {
	return p.getWhere(ctx, dest, table, fmt.Sprintf("%q = $1", column), nativeValue(value))
}

// GetByLower implements Store.
func (p *Postgres) GetByLower(ctx context.Context, dest any, table, column, value string) error {
	return p.getWhere(ctx, dest, table, fmt.Sprintf("lower(%q) = lower($1)", column), value)
}

func (p *Postgres) getWhere(ctx context.Context, dest any, table, where string, arg any) error {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT 1", table, where)
	err := p.db.QueryRowxContext(ctx, query, arg).StructScan(dest)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to fetch from %s: %w", table, err)
	}
	return nil
}

// Select implements Store.
func (p *Postgres) Select(ctx context.Context, dest any, table string, q Query) error {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT * FROM %s", table)
	var args []any
	if q.Column != "" {
		query += fmt.Sprintf(" WHERE %q = $1", q.Column)
		args = append(args, nativeValue(q.Value))
	}
	if q.OrderBy != "" {
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %q %s", q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	if err := p.db.SelectContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("failed to select from %s: %w", table, err)
	}
	return nil
}

// Insert implements Store.
func (p *Postgres) Insert(ctx context.Context, dest any, table string, values map[string]any) error {
	cols := sortedColumns(values)
	quoted := make([]string, 0, len(cols))
	marks := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for i, col := range cols {
		quoted = append(quoted, fmt.Sprintf("%q", col))
		marks = append(marks, fmt.Sprintf("$%d", i+1))
		args = append(args, nativeValue(values[col]))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(quoted, ", "), strings.Join(marks, ", "))
	return noRowIsSuccess(p.writeRow(ctx, dest, table, query, args))
}

// Update implements Store.
func (p *Postgres) Update(ctx context.Context, dest any, table, id string, values map[string]any) error {
	cols := sortedColumns(values)
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%q = $%d", col, i+1))
		args = append(args, nativeValue(values[col]))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING *",
		table, strings.Join(sets, ", "), len(args))
	err := p.writeRow(ctx, dest, table, query, args)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Upsert implements Store.
func (p *Postgres) Upsert(ctx context.Context, dest any, table, conflictColumn string, values map[string]any) error {
	cols := sortedColumns(values)
	quoted := make([]string, 0, len(cols))
	marks := make([]string, 0, len(cols))
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for i, col := range cols {
		quoted = append(quoted, fmt.Sprintf("%q", col))
		marks = append(marks, fmt.Sprintf("$%d", i+1))
		args = append(args, nativeValue(values[col]))
		// The conflict target and creation stamp keep their original
		// values on update.
		if col != conflictColumn && col != "id" && col != "created_at" {
			sets = append(sets, fmt.Sprintf("%q = EXCLUDED.%q", col, col))
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%q) DO UPDATE SET %s RETURNING *",
		table, strings.Join(quoted, ", "), strings.Join(marks, ", "),
		conflictColumn, strings.Join(sets, ", "))
	return noRowIsSuccess(p.writeRow(ctx, dest, table, query, args))
}

// Delete implements Store.
func (p *Postgres) Delete(ctx context.Context, table, id string) error {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", table)
	if _, err := p.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

func (p *Postgres) writeRow(ctx context.Context, dest any, table, query string, args []any) error {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	if dest == nil {
		if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to write to %s: %w", table, err)
		}
		return nil
	}
	if err := p.db.QueryRowxContext(ctx, query, args...).StructScan(dest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("failed to write to %s: %w", table, err)
	}
	return nil
}

// noRowIsSuccess treats an absent RETURNING row as statement success.
// A rewrite rule or trigger can suppress the returned row on insert;
// the caller's dest is simply left untouched. Update keeps the bare
// no-rows error because there it means the record does not exist.
func noRowIsSuccess(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

func (p *Postgres) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeout)
}

func sortedColumns(values map[string]any) []string {
	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// nativeValue converts a canonical column value to the remote-native
// representation: booleans stay booleans, timestamps become time.Time
// (NULL when unset), structured values JSON text for jsonb columns.
func nativeValue(v any) any {
	switch val := v.(type) {
	case model.Bool:
		return bool(val)
	case model.Timestamp:
		if val.IsZero() {
			return nil
		}
		return val.Time()
	case model.StringList, model.JSONMap, model.QuestionList, model.AnswerList,
		[]any, map[string]any, []string:
		data, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		return string(data)
	default:
		return v
	}
}
