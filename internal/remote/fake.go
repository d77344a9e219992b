package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Fake is an in-memory Store for tests and local development. It
// enforces the same uniqueness rules as the authoritative schema (ids
// everywhere, case-insensitive usernames, one settings row per user)
// and can simulate unreachability and injected failures.
type Fake struct {
	mu      sync.Mutex
	tables  map[string]map[string]map[string]any
	order   map[string][]string
	uniques map[string][]string
	calls   map[string]int
	offline bool
	failErr error
}

// NewFake returns an empty fake with the standard uniqueness rules
// registered.
func NewFake() *Fake {
	return &Fake{
		tables: make(map[string]map[string]map[string]any),
		order:  make(map[string][]string),
		uniques: map[string][]string{
			"users":             {"username"},
			"user_settings":     {"user_id"},
			"pomodoro_settings": {"user_id"},
		},
		calls: make(map[string]int),
	}
}

// SetOffline makes every operation fail with an unavailability error.
func (f *Fake) SetOffline(offline bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = offline
}

// SetError injects err as the result of every operation until cleared
// with SetError(nil).
func (f *Fake) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failErr = err
}

// Count returns the number of rows in table.
func (f *Fake) Count(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

// Row returns a copy of the stored row, or nil if absent.
func (f *Fake) Row(table, id string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.tables[table][id]
	if !ok {
		return nil
	}
	cp := make(map[string]any, len(row))
	for k, v := range row {
		cp[k] = v
	}
	return cp
}

// CallCount returns how many times the named operation ran (reachable
// or not). Operation names: ping, get, select, insert, update, upsert,
// delete.
func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Ping implements Store.
func (f *Fake) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gate("ping")
}

// Get implements Store.
func (f *Fake) Get(_ context.Context, dest any, table, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.gate("get"); err != nil {
		return err
	}
	row, ok := f.tables[table][id]
	if !ok {
		return ErrNotFound
	}
	return decode(row, dest)
}

// GetBy implements Store.
func (f *Fake) GetBy(_ context.Context, dest any, table, column string, value any) error {
	return f.getMatch(dest, table, column, value, false)
}

// GetByLower implements Store.
func (f *Fake) GetByLower(_ context.Context, dest any, table, column, value string) error {
	return f.getMatch(dest, table, column, value, true)
}

func (f *Fake) getMatch(dest any, table, column string, value any, fold bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.gate("get"); err != nil {
		return err
	}
	for _, id := range f.order[table] {
		row, ok := f.tables[table][id]
		if !ok {
			continue
		}
		if matches(row[column], value, fold) {
			return decode(row, dest)
		}
	}
	return ErrNotFound
}

// Select implements Store.
func (f *Fake) Select(_ context.Context, dest any, table string, q Query) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.gate("select"); err != nil {
		return err
	}

	var rows []map[string]any
	for _, id := range f.order[table] {
		row, ok := f.tables[table][id]
		if !ok {
			continue
		}
		if q.Column != "" && !matches(row[q.Column], q.Value, false) {
			continue
		}
		rows = append(rows, row)
	}

	if q.OrderBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			a := fmt.Sprintf("%v", rows[i][q.OrderBy])
			b := fmt.Sprintf("%v", rows[j][q.OrderBy])
			if q.Descending {
				return a > b
			}
			return a < b
		})
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	return decode(rows, dest)
}

// Insert implements Store.
func (f *Fake) Insert(_ context.Context, dest any, table string, values map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.gate("insert"); err != nil {
		return err
	}

	row, err := normalize(values)
	if err != nil {
		return err
	}
	id := fmt.Sprintf("%v", row["id"])
	if _, exists := f.tables[table][id]; exists {
		return fmt.Errorf("%w: duplicate key id=%s in %s", ErrConflict, id, table)
	}
	for _, col := range f.uniques[table] {
		for _, otherID := range f.order[table] {
			other, ok := f.tables[table][otherID]
			if !ok {
				continue
			}
			if matches(other[col], row[col], true) {
				return fmt.Errorf("%w: duplicate key %s in %s", ErrConflict, col, table)
			}
		}
	}

	f.put(table, id, row)
	if dest == nil {
		return nil
	}
	return decode(row, dest)
}

// Update implements Store.
func (f *Fake) Update(_ context.Context, dest any, table, id string, values map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.gate("update"); err != nil {
		return err
	}

	row, ok := f.tables[table][id]
	if !ok {
		return ErrNotFound
	}
	patch, err := normalize(values)
	if err != nil {
		return err
	}
	for k, v := range patch {
		row[k] = v
	}
	if dest == nil {
		return nil
	}
	return decode(row, dest)
}

// Upsert implements Store.
func (f *Fake) Upsert(_ context.Context, dest any, table, conflictColumn string, values map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.gate("upsert"); err != nil {
		return err
	}

	patch, err := normalize(values)
	if err != nil {
		return err
	}
	for _, id := range f.order[table] {
		row, ok := f.tables[table][id]
		if !ok {
			continue
		}
		if matches(row[conflictColumn], patch[conflictColumn], true) {
			for k, v := range patch {
				// Conflict target, id and creation stamp survive the
				// update, mirroring the SQL upsert.
				if k == conflictColumn || k == "id" || k == "created_at" {
					continue
				}
				row[k] = v
			}
			if dest == nil {
				return nil
			}
			return decode(row, dest)
		}
	}

	id := fmt.Sprintf("%v", patch["id"])
	f.put(table, id, patch)
	if dest == nil {
		return nil
	}
	return decode(patch, dest)
}

// Delete implements Store.
func (f *Fake) Delete(_ context.Context, table, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.gate("delete"); err != nil {
		return err
	}
	delete(f.tables[table], id)
	return nil
}

// gate counts the call and returns the injected failure, if any.
// Callers hold f.mu.
func (f *Fake) gate(op string) error {
	f.calls[op]++
	if f.offline {
		return fmt.Errorf("fake remote: %w", ErrUnavailable)
	}
	return f.failErr
}

func (f *Fake) put(table, id string, row map[string]any) {
	if f.tables[table] == nil {
		f.tables[table] = make(map[string]map[string]any)
	}
	f.tables[table][id] = row
	f.order[table] = append(f.order[table], id)
}

// normalize round-trips values through JSON so stored rows use plain
// JSON types regardless of whether they came from entity structs or
// replayed queue payloads.
func normalize(values map[string]any) (map[string]any, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("fake remote: failed to normalize row: %w", err)
	}
	var row map[string]any
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("fake remote: failed to normalize row: %w", err)
	}
	return row, nil
}

func decode(src, dest any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("fake remote: failed to decode row: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("fake remote: failed to decode row: %w", err)
	}
	return nil
}

func matches(a, b any, fold bool) bool {
	av, bv := fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)
	if fold {
		return strings.EqualFold(av, bv)
	}
	return av == bv
}
