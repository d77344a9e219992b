// Package remote adapts the authoritative relational data service.
//
// All operations return explicit errors instead of driving control
// flow through exceptions; callers branch on the classification
// helpers (IsNotFound, IsConflict, IsUnavailable) to decide between
// surfacing a failure and falling back to the local store.
package remote

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"
)

// Store is the authoritative remote data service.
//
// dest, where present, receives the affected row(s): a pointer to an
// entity struct for single-row operations or a pointer to a slice for
// Select. Mutating operations accept a nil dest when the caller does
// not need the returned row. An insert that succeeds without
// returning a row leaves dest untouched and returns nil.
type Store interface {
	// Ping reports whether the service is currently reachable.
	Ping(ctx context.Context) error

	// Get fetches a single row by id. Returns ErrNotFound when absent.
	Get(ctx context.Context, dest any, table, id string) error

	// GetBy fetches a single row matching column = value.
	GetBy(ctx context.Context, dest any, table, column string, value any) error

	// GetByLower fetches a single row matching column = value
	// case-insensitively. Username lookups rely on this.
	GetByLower(ctx context.Context, dest any, table, column, value string) error

	// Select fetches all rows matching the query into dest.
	Select(ctx context.Context, dest any, table string, q Query) error

	// Insert adds a row and scans the stored copy (authoritative for
	// defaulted columns) into dest.
	Insert(ctx context.Context, dest any, table string, values map[string]any) error

	// Update applies values to the row with the given id and scans the
	// updated copy into dest. Returns ErrNotFound when absent.
	Update(ctx context.Context, dest any, table, id string, values map[string]any) error

	// Upsert inserts or, on a conflict against conflictColumn, updates
	// the existing row, scanning the stored copy into dest.
	Upsert(ctx context.Context, dest any, table, conflictColumn string, values map[string]any) error

	// Delete removes the row with the given id. Deleting an absent row
	// succeeds.
	Delete(ctx context.Context, table, id string) error
}

// Query filters and orders a Select.
type Query struct {
	// Column/Value filter rows where column = value. Empty Column
	// selects the whole table.
	Column string
	Value  any

	// OrderBy names the ordering column; Descending flips direction.
	OrderBy    string
	Descending bool

	// Limit caps the row count when positive.
	Limit int
}

var (
	// ErrNotFound marks a single-row fetch or update against an absent
	// row.
	ErrNotFound = errors.New("remote: not found")

	// ErrConflict marks a duplicate-key class rejection.
	ErrConflict = errors.New("remote: conflict")

	// ErrUnavailable marks a connectivity-class failure: the service
	// could not be reached at all.
	ErrUnavailable = errors.New("remote: unavailable")
)

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a duplicate-key class error.
// During queue replay these are treated as already-synced.
func IsConflict(err error) bool {
	if errors.Is(err, ErrConflict) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// IsUnavailable reports whether err is a connectivity-class failure,
// which triggers the silent local fallback.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "08" // connection exception
	}
	return false
}
