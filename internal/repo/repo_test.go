package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/blob"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/syncengine"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/syncqueue"
)

type fixedNet struct {
	online bool
}

func (n *fixedNet) Online() bool { return n.online }

type harness struct {
	repos  *Repositories
	fake   *remote.Fake
	net    *fixedNet
	queue  *syncqueue.Queue
	local  *localstore.Store
	engine *syncengine.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	local, err := localstore.Open(localstore.Config{
		Path:   filepath.Join(t.TempDir(), "repo.db"),
		Blob:   blob.NewMemory(),
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = local.Close() })

	fake := remote.NewFake()
	net := &fixedNet{online: true}
	queue := syncqueue.New(local, zerolog.Nop())
	repos := New(Deps{
		Local:  local,
		Remote: fake,
		Queue:  queue,
		Net:    net,
		Logger: zerolog.Nop(),
	})
	engine := syncengine.New(syncengine.Config{
		Queue:      queue,
		Remote:     fake,
		Logger:     zerolog.Nop(),
		ReplayRate: 10000,
	})
	return &harness{repos: repos, fake: fake, net: net, queue: queue, local: local, engine: engine}
}

func (h *harness) pending(t *testing.T, userID string) []syncqueue.Item {
	t.Helper()
	items, err := h.queue.Pending(context.Background(), userID)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	return items
}

func TestCreateWritesThrough(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	todo := &model.Todo{UserID: "u1", Title: "read chapter 3"}
	if err := h.repos.Todos.Create(ctx, todo); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if h.fake.Count("todos") != 1 {
		t.Error("record did not reach the remote")
	}
	var local model.Todo
	if err := h.local.Get(ctx, &local, "SELECT * FROM todos WHERE id = ?", todo.ID); err != nil {
		t.Fatalf("local copy missing: %v", err)
	}
	if local.Title != "read chapter 3" {
		t.Errorf("local title = %q", local.Title)
	}
	if items := h.pending(t, "u1"); len(items) != 0 {
		t.Errorf("online create queued %d item(s)", len(items))
	}
}

func TestOfflineCreateIsDurableAndQueued(t *testing.T) {
	h := newHarness(t)
	h.net.online = false
	ctx := context.Background()

	todo := &model.Todo{UserID: "u1", Title: "offline task"}
	if err := h.repos.Todos.Create(ctx, todo); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if h.fake.Count("todos") != 0 {
		t.Error("offline create reached the remote")
	}
	if h.fake.CallCount("insert") != 0 {
		t.Error("offline create attempted a remote call")
	}
	var local model.Todo
	if err := h.local.Get(ctx, &local, "SELECT * FROM todos WHERE id = ?", todo.ID); err != nil {
		t.Fatalf("local copy missing: %v", err)
	}
	items := h.pending(t, "u1")
	if len(items) != 1 || items[0].Operation != syncqueue.OpInsert {
		t.Fatalf("queue = %+v", items)
	}
}

func TestMidCallUnavailabilityFallsBack(t *testing.T) {
	h := newHarness(t)
	h.fake.SetOffline(true) // monitor says online, remote disagrees
	ctx := context.Background()

	todo := &model.Todo{UserID: "u1", Title: "flaky network"}
	if err := h.repos.Todos.Create(ctx, todo); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(h.pending(t, "u1")) != 1 {
		t.Error("mid-call failure did not queue the mutation")
	}
}

func TestCreateFallsBackWhenRemoteRejects(t *testing.T) {
	h := newHarness(t)
	// The remote is reachable but refuses the statement. The write must
	// still land locally and queue for replay instead of being lost.
	h.fake.SetError(errors.New("pq: value too long for type character varying(64)"))
	ctx := context.Background()

	todo := &model.Todo{UserID: "u1", Title: "rejected upstream"}
	if err := h.repos.Todos.Create(ctx, todo); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var local model.Todo
	if err := h.local.Get(ctx, &local, "SELECT * FROM todos WHERE id = ?", todo.ID); err != nil {
		t.Fatalf("local copy missing: %v", err)
	}
	items := h.pending(t, "u1")
	if len(items) != 1 || items[0].Operation != syncqueue.OpInsert {
		t.Fatalf("queue = %+v", items)
	}
}

func TestUpdateFallsBackWhenRemoteRejects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	todo := &model.Todo{UserID: "u1", Title: "original"}
	if err := h.repos.Todos.Create(ctx, todo); err != nil {
		t.Fatalf("Create: %v", err)
	}

	h.fake.SetError(errors.New("pq: deadlock detected"))
	todo.Title = "edited"
	if err := h.repos.Todos.Update(ctx, todo); err != nil {
		t.Fatalf("Update: %v", err)
	}

	var local model.Todo
	if err := h.local.Get(ctx, &local, "SELECT * FROM todos WHERE id = ?", todo.ID); err != nil {
		t.Fatalf("local copy missing: %v", err)
	}
	if local.Title != "edited" {
		t.Errorf("local title = %q, want edited", local.Title)
	}
	items := h.pending(t, "u1")
	if len(items) != 1 || items[0].Operation != syncqueue.OpUpdate {
		t.Fatalf("queue = %+v", items)
	}
}

func TestOfflineTodoSyncsOnReconnect(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.net.online = false
	todo := &model.Todo{UserID: "u1", Title: "finish essay"}
	if err := h.repos.Todos.Create(ctx, todo); err != nil {
		t.Fatalf("Create: %v", err)
	}

	h.net.online = true
	res, err := h.engine.SyncAll(ctx, "u1")
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if res.Synced != 1 {
		t.Fatalf("result = %+v", res)
	}

	row := h.fake.Row("todos", todo.ID)
	if row == nil {
		t.Fatal("todo never reached the remote")
	}
	if row["title"] != "finish essay" {
		t.Errorf("remote title = %v", row["title"])
	}
	if len(h.pending(t, "u1")) != 0 {
		t.Error("queue not drained after reconnect")
	}
}

func TestUsernameTakenOnline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := &model.User{Username: "ana", Email: "ana@example.com"}
	if err := h.repos.Users.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	clash := &model.User{Username: "ANA", Email: "other@example.com"}
	if err := h.repos.Users.Create(ctx, clash); err != ErrUsernameTaken {
		t.Errorf("Create with taken username = %v, want ErrUsernameTaken", err)
	}
}

func TestDuplicateUsernameFirstWins(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Another device registered ana while this one was offline. Drop
	// the cached copy so this device has never seen that account.
	first := &model.User{Username: "ana", Email: "first@example.com"}
	if err := h.repos.Users.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := h.local.DeleteRow(ctx, "users", first.ID); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}

	h.net.online = false
	second := &model.User{Username: "Ana", Email: "second@example.com"}
	if err := h.repos.Users.Create(ctx, second); err != nil {
		t.Fatalf("offline Create: %v", err)
	}

	h.net.online = true
	res, err := h.engine.SyncAll(ctx, second.ID)
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if res.Conflicts != 1 {
		t.Fatalf("result = %+v, want one conflict resolution", res)
	}

	// The earlier registration survives untouched; the offline copy is
	// discarded rather than retried forever.
	if h.fake.Count("users") != 1 {
		t.Errorf("users remotely = %d, want 1", h.fake.Count("users"))
	}
	row := h.fake.Row("users", first.ID)
	if row == nil || row["email"] != "first@example.com" {
		t.Errorf("first registration was altered: %v", row)
	}
	if len(h.pending(t, second.ID)) != 0 {
		t.Error("conflicted item still pending")
	}
}

func TestGetFallsBackToCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	note := &model.Note{UserID: "u1", Title: "cached", Content: "body"}
	if err := h.repos.Notes.Create(ctx, note); err != nil {
		t.Fatalf("Create: %v", err)
	}

	h.fake.SetOffline(true)
	got, err := h.repos.Notes.Get(ctx, note.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Title != "cached" {
		t.Errorf("cache fallback gave %+v", got)
	}
}

func TestGetAbsentReturnsNil(t *testing.T) {
	h := newHarness(t)

	got, err := h.repos.Todos.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get(missing) = %+v, want nil", got)
	}
}

func TestDeleteAlwaysRemovesLocally(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	todo := &model.Todo{UserID: "u1", Title: "doomed"}
	if err := h.repos.Todos.Create(ctx, todo); err != nil {
		t.Fatalf("Create: %v", err)
	}

	h.fake.SetOffline(true)
	if err := h.repos.Todos.Delete(ctx, "u1", todo.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err := h.repos.Todos.Get(ctx, todo.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Error("local copy survived delete")
	}
	items := h.pending(t, "u1")
	if len(items) != 1 || items[0].Operation != syncqueue.OpDelete {
		t.Errorf("queue = %+v", items)
	}
}

func TestDeleteQueuesWhenRemoteRejects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	todo := &model.Todo{UserID: "u1", Title: "stubborn"}
	if err := h.repos.Todos.Create(ctx, todo); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A rejected remote delete still needs a queued DELETE; without one
	// the surviving remote row would repopulate the cache on the next
	// read.
	h.fake.SetError(errors.New("pq: permission denied for table todos"))
	if err := h.repos.Todos.Delete(ctx, "u1", todo.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var n int
	if err := h.local.Get(ctx, &n, "SELECT COUNT(*) FROM todos WHERE id = ?", todo.ID); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Error("local copy survived delete")
	}
	items := h.pending(t, "u1")
	if len(items) != 1 || items[0].Operation != syncqueue.OpDelete {
		t.Fatalf("queue = %+v", items)
	}

	h.fake.SetError(nil)
	if _, err := h.engine.SyncAll(ctx, "u1"); err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if h.fake.Count("todos") != 0 {
		t.Error("remote row survived the replayed delete")
	}
}

func TestOfflineUpsertAdoptsExistingRow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	settings := &model.PomodoroSettings{UserID: "u1", WorkMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsBeforeLongBreak: 4}
	if err := h.repos.Pomodoro.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	firstID := settings.ID

	h.net.online = false
	changed := &model.PomodoroSettings{UserID: "u1", WorkMinutes: 50, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsBeforeLongBreak: 4}
	if err := h.repos.Pomodoro.SaveSettings(ctx, changed); err != nil {
		t.Fatalf("offline SaveSettings: %v", err)
	}

	// The offline save adopts the cached row's identity so the queued
	// replay updates in place instead of colliding on user_id.
	if changed.ID != firstID {
		t.Errorf("offline save created new identity %s, want %s", changed.ID, firstID)
	}
	items := h.pending(t, "u1")
	if len(items) != 1 || items[0].Operation != syncqueue.OpUpdate {
		t.Fatalf("queue = %+v", items)
	}

	var n int
	if err := h.local.Get(ctx, &n, "SELECT COUNT(*) FROM pomodoro_settings WHERE user_id = ?", "u1"); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("settings rows locally = %d, want 1", n)
	}

	h.net.online = true
	if _, err := h.engine.SyncAll(ctx, "u1"); err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	row := h.fake.Row("pomodoro_settings", firstID)
	if row == nil {
		t.Fatal("settings row missing remotely")
	}
	if work, ok := row["work_minutes"].(float64); !ok || int(work) != 50 {
		t.Errorf("work_minutes = %v, want 50", row["work_minutes"])
	}
}

func TestOfflineUpsertQueuesInsertWhenNew(t *testing.T) {
	h := newHarness(t)
	h.net.online = false
	ctx := context.Background()

	settings := &model.UserSettings{UserID: "u1", Theme: "dark", Language: "en", StudyReminderHour: 20}
	if err := h.repos.Settings.SaveUser(ctx, settings); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	items := h.pending(t, "u1")
	if len(items) != 1 || items[0].Operation != syncqueue.OpInsert {
		t.Errorf("queue = %+v", items)
	}
}

func TestAppSettingsSingleton(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	s := &model.AppSettings{Announcement: "welcome"}
	if err := h.repos.Settings.SaveApp(ctx, "admin", s); err != nil {
		t.Fatalf("SaveApp: %v", err)
	}
	s2 := &model.AppSettings{Announcement: "maintenance tonight", MaintenanceMode: true}
	if err := h.repos.Settings.SaveApp(ctx, "admin", s2); err != nil {
		t.Fatalf("SaveApp again: %v", err)
	}

	if h.fake.Count("app_settings") != 1 {
		t.Errorf("app_settings rows = %d, want 1", h.fake.Count("app_settings"))
	}
	got, err := h.repos.Settings.GetApp(ctx)
	if err != nil {
		t.Fatalf("GetApp: %v", err)
	}
	if got == nil || got.Announcement != "maintenance tonight" || !got.MaintenanceMode {
		t.Errorf("GetApp = %+v", got)
	}
}

func TestListFallsBackLocally(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b"} {
		if err := h.repos.Todos.Create(ctx, &model.Todo{UserID: "u1", Title: title}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	h.net.online = false
	todos, err := h.repos.Todos.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(todos) != 2 {
		t.Errorf("offline list = %d rows, want 2", len(todos))
	}
}
