package syncengine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/blob"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/syncqueue"
)

func newTestEngine(t *testing.T) (*Engine, *syncqueue.Queue, *remote.Fake) {
	t.Helper()
	local, err := localstore.Open(localstore.Config{
		Path:   filepath.Join(t.TempDir(), "engine.db"),
		Blob:   blob.NewMemory(),
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = local.Close() })

	queue := syncqueue.New(local, zerolog.Nop())
	fake := remote.NewFake()
	engine := New(Config{
		Queue:      queue,
		Remote:     fake,
		Logger:     zerolog.Nop(),
		ReplayRate: 10000, // tests should not wait on the limiter
	})
	return engine, queue, fake
}

func todoPayload(id, title string) map[string]any {
	return map[string]any{
		"id": id, "user_id": "u1", "title": title, "description": "",
		"completed": false, "priority": 0,
		"created_at": "2026-01-01T10:00:00Z", "updated_at": "2026-01-01T10:00:00Z",
	}
}

func TestSyncAllReplaysInOrder(t *testing.T) {
	engine, queue, fake := newTestEngine(t)
	ctx := context.Background()

	// INSERT then UPDATE of the same record must land in that order so
	// the final remote state carries the updated title.
	if _, err := queue.Enqueue(ctx, "u1", "todos", "t1", syncqueue.OpInsert, todoPayload("t1", "draft")); err != nil {
		t.Fatalf("Enqueue insert: %v", err)
	}
	if _, err := queue.Enqueue(ctx, "u1", "todos", "t1", syncqueue.OpUpdate, todoPayload("t1", "final")); err != nil {
		t.Fatalf("Enqueue update: %v", err)
	}

	res, err := engine.SyncAll(ctx, "u1")
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if res.Synced != 2 || res.Failed != 0 {
		t.Fatalf("result = %+v", res)
	}

	row := fake.Row("todos", "t1")
	if row == nil {
		t.Fatal("record never reached the remote")
	}
	if row["title"] != "final" {
		t.Errorf("title = %v, want final", row["title"])
	}

	n, err := queue.CountPending(ctx, "u1")
	if err != nil {
		t.Fatalf("CountPending: %v", err)
	}
	if n != 0 {
		t.Errorf("pending = %d after full sync", n)
	}
}

func TestUpdateThenDeleteReplaysInOrder(t *testing.T) {
	engine, queue, fake := newTestEngine(t)
	ctx := context.Background()

	if err := fake.Insert(ctx, nil, "todos", todoPayload("t1", "original")); err != nil {
		t.Fatalf("seed remote: %v", err)
	}
	if _, err := queue.Enqueue(ctx, "u1", "todos", "t1", syncqueue.OpUpdate, todoPayload("t1", "edited")); err != nil {
		t.Fatalf("Enqueue update: %v", err)
	}
	if _, err := queue.Enqueue(ctx, "u1", "todos", "t1", syncqueue.OpDelete, nil); err != nil {
		t.Fatalf("Enqueue delete: %v", err)
	}

	res, err := engine.SyncAll(ctx, "u1")
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if res.Synced != 2 {
		t.Fatalf("result = %+v", res)
	}
	if fake.Count("todos") != 0 {
		t.Error("record survived the replayed delete")
	}
}

func TestDuplicateInsertMarkedSynced(t *testing.T) {
	engine, queue, fake := newTestEngine(t)
	ctx := context.Background()

	// The record already exists remotely; the queued insert must
	// resolve as already-applied, first write winning.
	if err := fake.Insert(ctx, nil, "todos", todoPayload("t1", "remote copy")); err != nil {
		t.Fatalf("seed remote: %v", err)
	}
	if _, err := queue.Enqueue(ctx, "u1", "todos", "t1", syncqueue.OpInsert, todoPayload("t1", "local copy")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	res, err := engine.SyncAll(ctx, "u1")
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if res.Synced != 1 || res.Conflicts != 1 {
		t.Fatalf("result = %+v", res)
	}

	row := fake.Row("todos", "t1")
	if row["title"] != "remote copy" {
		t.Errorf("conflict overwrote the earlier record: %v", row["title"])
	}
	n, _ := queue.CountPending(ctx, "u1")
	if n != 0 {
		t.Errorf("pending = %d, conflict item should be synced", n)
	}
}

func TestUnavailableAbortsPass(t *testing.T) {
	engine, queue, fake := newTestEngine(t)
	ctx := context.Background()

	if _, err := queue.Enqueue(ctx, "u1", "todos", "t1", syncqueue.OpInsert, todoPayload("t1", "a")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	fake.SetOffline(true)

	_, err := engine.SyncAll(ctx, "u1")
	if !remote.IsUnavailable(err) {
		t.Fatalf("SyncAll = %v, want unavailability", err)
	}

	// Nothing consumed, nothing marked failed.
	items, err := queue.Pending(ctx, "u1")
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(items) != 1 || items[0].RetryCount != 0 {
		t.Errorf("items = %+v", items)
	}
}

func TestFailedItemStaysQueuedAndPassContinues(t *testing.T) {
	engine, queue, fake := newTestEngine(t)
	ctx := context.Background()

	// An update against a record that never existed remotely is
	// dropped; a genuinely malformed item is marked failed but the
	// rest of the queue still drains.
	if _, err := queue.Enqueue(ctx, "u1", "todos", "bad", syncqueue.Operation("REPLACE"), nil); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := queue.Enqueue(ctx, "u1", "todos", "t2", syncqueue.OpInsert, todoPayload("t2", "b")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	res, err := engine.SyncAll(ctx, "u1")
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if res.Failed != 1 || res.Synced != 1 {
		t.Fatalf("result = %+v", res)
	}
	if fake.Row("todos", "t2") == nil {
		t.Error("later item was not replayed past the failure")
	}

	items, _ := queue.Pending(ctx, "u1")
	if len(items) != 1 || items[0].RecordID != "bad" {
		t.Errorf("pending = %+v", items)
	}
	if items[0].LastError == "" {
		t.Error("failure cause not recorded")
	}
}

func TestUpdateAgainstDeletedRecordDropped(t *testing.T) {
	engine, queue, fake := newTestEngine(t)
	ctx := context.Background()

	if _, err := queue.Enqueue(ctx, "u1", "todos", "gone", syncqueue.OpUpdate, todoPayload("gone", "x")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	res, err := engine.SyncAll(ctx, "u1")
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if res.Synced != 1 {
		t.Fatalf("result = %+v", res)
	}
	if fake.Count("todos") != 0 {
		t.Error("dropped update still created a record")
	}
}

func TestSingleFlight(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	engine.syncing.Store(true)
	res, err := engine.SyncAll(context.Background(), "u1")
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if !res.Skipped {
		t.Error("concurrent pass was not skipped")
	}
	if !engine.Syncing() {
		t.Error("skip cleared the running flag")
	}
}

func TestBackoffDefersRetries(t *testing.T) {
	engine, queue, fake := newTestEngine(t)
	ctx := context.Background()

	fake.SetError(errInjected)
	if _, err := queue.Enqueue(ctx, "u1", "todos", "t1", syncqueue.OpInsert, todoPayload("t1", "a")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// First pass fails the item and stamps the attempt.
	res, err := engine.SyncAll(ctx, "u1")
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if res.Failed != 1 {
		t.Fatalf("result = %+v", res)
	}
	fake.SetError(nil)

	// Immediately after, the item is inside its backoff window.
	res, err = engine.SyncAll(ctx, "u1")
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if res.Deferred != 1 || res.Synced != 0 {
		t.Fatalf("result = %+v, want deferred", res)
	}

	// Past the window the retry goes through.
	engine.now = func() time.Time { return time.Now().Add(DefaultBackoffBase + time.Second) }
	res, err = engine.SyncAll(ctx, "u1")
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if res.Synced != 1 {
		t.Fatalf("result = %+v, want synced after backoff", res)
	}
}

func TestRetryingRecordHoldsBackLaterMutations(t *testing.T) {
	engine, queue, fake := newTestEngine(t)
	ctx := context.Background()

	// The INSERT fails and enters backoff. An UPDATE of the same record
	// queued afterwards must wait for it; replaying the UPDATE first
	// would drop it against a record that does not exist yet, and the
	// retried INSERT would then resurrect the stale title.
	fake.SetError(errInjected)
	if _, err := queue.Enqueue(ctx, "u1", "todos", "t1", syncqueue.OpInsert, todoPayload("t1", "draft")); err != nil {
		t.Fatalf("Enqueue insert: %v", err)
	}
	res, err := engine.SyncAll(ctx, "u1")
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if res.Failed != 1 {
		t.Fatalf("result = %+v", res)
	}
	fake.SetError(nil)

	if _, err := queue.Enqueue(ctx, "u1", "todos", "t1", syncqueue.OpUpdate, todoPayload("t1", "final")); err != nil {
		t.Fatalf("Enqueue update: %v", err)
	}

	// Inside the backoff window both items hold back.
	res, err = engine.SyncAll(ctx, "u1")
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if res.Deferred != 2 || res.Synced != 0 {
		t.Fatalf("result = %+v, want both deferred", res)
	}
	if fake.Count("todos") != 0 {
		t.Fatal("update replayed ahead of its pending insert")
	}

	// After the window the pair replays in submission order.
	engine.now = func() time.Time { return time.Now().Add(DefaultBackoffBase + time.Second) }
	res, err = engine.SyncAll(ctx, "u1")
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if res.Synced != 2 {
		t.Fatalf("result = %+v", res)
	}
	row := fake.Row("todos", "t1")
	if row == nil || row["title"] != "final" {
		t.Errorf("row = %v, want title final", row)
	}
	n, _ := queue.CountPending(ctx, "u1")
	if n != 0 {
		t.Errorf("pending = %d after full sync", n)
	}
}

type injectedError struct{}

func (injectedError) Error() string { return "injected failure" }

var errInjected = injectedError{}
