// Package syncqueue persists mutations made while the remote store was
// unreachable so they can be replayed later in submission order.
package syncqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
)

// Operation is the kind of mutation a queue item replays.
type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Item is one queued mutation. Payload is the sanitized column map as
// JSON; it is nil for deletes.
type Item struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"user_id"`
	Table         string          `db:"table_name" json:"table_name"`
	RecordID      string          `db:"record_id" json:"record_id"`
	Operation     Operation       `db:"operation" json:"operation"`
	Payload       []byte          `db:"payload" json:"payload,omitempty"`
	Synced        model.Bool      `db:"synced" json:"synced"`
	RetryCount    int             `db:"retry_count" json:"retry_count"`
	LastError     string          `db:"last_error" json:"last_error,omitempty"`
	LastAttemptAt model.Timestamp `db:"last_attempt_at" json:"last_attempt_at"`
	CreatedAt     model.Timestamp `db:"created_at" json:"created_at"`
	SyncedAt      model.Timestamp `db:"synced_at" json:"synced_at"`
}

// DecodePayload unmarshals the item's column map. Deletes have none.
func (it Item) DecodePayload() (map[string]any, error) {
	if len(it.Payload) == 0 {
		return nil, nil
	}
	var values map[string]any
	if err := json.Unmarshal(it.Payload, &values); err != nil {
		return nil, fmt.Errorf("failed to decode queue payload %s: %w", it.ID, err)
	}
	return values, nil
}

// Queue stores pending mutations in the local store's sync_queue table,
// sharing its durability guarantees.
type Queue struct {
	local *localstore.Store
	log   zerolog.Logger
}

// New creates a Queue backed by the given local store.
func New(local *localstore.Store, logger zerolog.Logger) *Queue {
	return &Queue{local: local, log: logger}
}

// Enqueue records a mutation for later replay and returns the item id.
// The payload is sanitized against the authoritative column set before
// it is stored; deletes pass a nil payload.
func (q *Queue) Enqueue(ctx context.Context, userID, table, recordID string, op Operation, payload map[string]any) (string, error) {
	values := map[string]any{
		"id":         localstore.NewID(),
		"user_id":    userID,
		"table_name": table,
		"record_id":  recordID,
		"operation":  string(op),
		"synced":     0,
		"created_at": model.Now(),
	}
	if payload != nil {
		data, err := json.Marshal(Sanitize(table, payload))
		if err != nil {
			return "", fmt.Errorf("failed to encode queue payload: %w", err)
		}
		values["payload"] = string(data)
	}

	if err := q.local.InsertRow(ctx, "sync_queue", values); err != nil {
		return "", fmt.Errorf("failed to enqueue %s %s/%s: %w", op, table, recordID, err)
	}

	id := values["id"].(string)
	q.log.Debug().
		Str("item", id).
		Str("op", string(op)).
		Str("table", table).
		Str("record", recordID).
		Msg("queued offline mutation")
	return id, nil
}

// Pending returns the user's unsynced items oldest first. Items queued
// in the same second keep their insertion order.
func (q *Queue) Pending(ctx context.Context, userID string) ([]Item, error) {
	var items []Item
	err := q.local.Select(ctx, &items,
		`SELECT * FROM sync_queue
		 WHERE user_id = ? AND synced = 0
		 ORDER BY created_at ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending queue items: %w", err)
	}
	return items, nil
}

// CountPending returns how many items await replay for the user.
func (q *Queue) CountPending(ctx context.Context, userID string) (int, error) {
	var n int
	err := q.local.Get(ctx, &n,
		"SELECT COUNT(*) FROM sync_queue WHERE user_id = ? AND synced = 0", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending queue items: %w", err)
	}
	return n, nil
}

// MarkSynced marks the item as applied. It stays in the table as a
// sync-history record.
func (q *Queue) MarkSynced(ctx context.Context, id string) error {
	_, err := q.local.Exec(ctx,
		"UPDATE sync_queue SET synced = 1, synced_at = ?, last_error = '' WHERE id = ?",
		model.Now().String(), id)
	if err != nil {
		return fmt.Errorf("failed to mark queue item %s synced: %w", id, err)
	}
	return nil
}

// MarkFailed records a replay failure, bumping the retry counter.
func (q *Queue) MarkFailed(ctx context.Context, id, cause string) error {
	_, err := q.local.Exec(ctx,
		`UPDATE sync_queue
		 SET retry_count = retry_count + 1, last_error = ?, last_attempt_at = ?
		 WHERE id = ?`,
		cause, model.Now().String(), id)
	if err != nil {
		return fmt.Errorf("failed to mark queue item %s failed: %w", id, err)
	}
	return nil
}

// Clear drops all of the user's queue items, synced or not. Used by
// reset and logout flows.
func (q *Queue) Clear(ctx context.Context, userID string) error {
	if _, err := q.local.Exec(ctx, "DELETE FROM sync_queue WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to clear sync queue: %w", err)
	}
	return nil
}

// Sanitize strips every key that is not an authoritative column of
// table, so payloads recorded under an older client never replay
// rejected fields.
func Sanitize(table string, payload map[string]any) map[string]any {
	clean := make(map[string]any, len(payload))
	for col, v := range payload {
		if localstore.IsColumn(table, col) {
			clean[col] = v
		}
	}
	return clean
}
