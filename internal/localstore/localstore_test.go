package localstore

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/blob"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
)

func openTestStore(t *testing.T, backend blob.Store) *Store {
	t.Helper()
	s, err := Open(Config{
		Path:   filepath.Join(t.TempDir(), "test.db"),
		Blob:   backend,
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFreshStoreHasSchema(t *testing.T) {
	s := openTestStore(t, blob.NewMemory())
	ctx := context.Background()

	var n int
	if err := s.Get(ctx, &n, "SELECT COUNT(*) FROM todos"); err != nil {
		t.Fatalf("schema missing: %v", err)
	}
	if n != 0 {
		t.Errorf("fresh todos table has %d rows", n)
	}
}

func TestWriteSurvivesReopen(t *testing.T) {
	backend := blob.NewMemory()
	ctx := context.Background()

	s := openTestStore(t, backend)
	err := s.InsertRow(ctx, "todos", map[string]any{
		"id":          "t1",
		"user_id":     "u1",
		"title":       "revise calculus",
		"description": "",
		"completed":   model.Bool(false),
		"priority":    2,
		"due_date":    model.Timestamp{},
		"created_at":  model.Now(),
		"updated_at":  model.Now(),
	})
	if err != nil {
		t.Fatalf("InsertRow: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A second store restored purely from the persisted image must see
	// the row.
	reopened := openTestStore(t, backend)
	var todo model.Todo
	if err := reopened.Get(ctx, &todo, "SELECT * FROM todos WHERE id = ?", "t1"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if todo.Title != "revise calculus" || bool(todo.Completed) {
		t.Errorf("reloaded row mismatch: %+v", todo)
	}
	if !todo.DueDate.IsZero() {
		t.Errorf("unset due_date came back as %v", todo.DueDate)
	}
}

func TestUpdateRowMissing(t *testing.T) {
	s := openTestStore(t, blob.NewMemory())

	err := s.UpdateRow(context.Background(), "todos", "nope", map[string]any{"title": "x"})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("UpdateRow on missing row = %v, want sql.ErrNoRows", err)
	}
}

func TestReplaceRowOverwrites(t *testing.T) {
	s := openTestStore(t, blob.NewMemory())
	ctx := context.Background()

	row := map[string]any{
		"id": "n1", "user_id": "u1", "title": "first", "content": "",
		"tags": model.StringList{"a"}, "pinned": model.Bool(false),
		"created_at": model.Now(), "updated_at": model.Now(),
	}
	if err := s.ReplaceRow(ctx, "notes", row); err != nil {
		t.Fatalf("ReplaceRow: %v", err)
	}
	row["title"] = "second"
	if err := s.ReplaceRow(ctx, "notes", row); err != nil {
		t.Fatalf("ReplaceRow again: %v", err)
	}

	var note model.Note
	if err := s.Get(ctx, &note, "SELECT * FROM notes WHERE id = ?", "n1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if note.Title != "second" {
		t.Errorf("title = %q, want second", note.Title)
	}
	var n int
	if err := s.Get(ctx, &n, "SELECT COUNT(*) FROM notes"); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("replace created %d rows", n)
	}
}

func TestEncodeValue(t *testing.T) {
	if got := EncodeValue(model.Bool(true)); got != 1 {
		t.Errorf("EncodeValue(Bool(true)) = %v, want 1", got)
	}
	if got := EncodeValue(false); got != 0 {
		t.Errorf("EncodeValue(false) = %v, want 0", got)
	}
	if got := EncodeValue(model.Timestamp{}); got != nil {
		t.Errorf("EncodeValue(zero Timestamp) = %v, want nil", got)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := EncodeValue(now); got != "2026-03-01T12:00:00Z" {
		t.Errorf("EncodeValue(time) = %v", got)
	}

	got := EncodeValue(model.StringList{"a", "b"})
	if got != `["a","b"]` {
		t.Errorf("EncodeValue(StringList) = %v", got)
	}
}

func TestStructuredFieldRoundTrip(t *testing.T) {
	s := openTestStore(t, blob.NewMemory())
	ctx := context.Background()

	questions := model.QuestionList{
		{ID: "q1", Prompt: "2+2?", Choices: []string{"3", "4"}, Answer: 1},
	}
	err := s.InsertRow(ctx, "custom_quizzes", map[string]any{
		"id": "cq1", "user_id": "u1", "title": "arith", "description": "",
		"questions": questions, "tags": model.StringList{"math"},
		"is_public": model.Bool(true),
		"created_at": model.Now(), "updated_at": model.Now(),
	})
	if err != nil {
		t.Fatalf("InsertRow: %v", err)
	}

	var quiz model.CustomQuiz
	if err := s.Get(ctx, &quiz, "SELECT * FROM custom_quizzes WHERE id = ?", "cq1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(quiz.Questions) != 1 || quiz.Questions[0].Prompt != "2+2?" {
		t.Errorf("questions did not round-trip: %+v", quiz.Questions)
	}
	if len(quiz.Tags) != 1 || quiz.Tags[0] != "math" {
		t.Errorf("tags did not round-trip: %+v", quiz.Tags)
	}
	if !quiz.IsPublic {
		t.Error("is_public did not round-trip")
	}
}

func TestIsColumn(t *testing.T) {
	if !IsColumn("todos", "title") {
		t.Error("title should be a todos column")
	}
	if IsColumn("todos", "hacked") {
		t.Error("hacked should not be a todos column")
	}
	if IsColumn("unknown_table", "id") {
		t.Error("unknown table should have no columns")
	}
}
