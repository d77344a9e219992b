package repo

import (
	"context"
	"fmt"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
)

// Todos manages study checklist tasks.
type Todos struct {
	*base
}

// Create saves a new task.
func (r *Todos) Create(ctx context.Context, t *model.Todo) error {
	if t.ID == "" {
		t.ID = localstore.NewID()
	}
	now := model.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return r.create(ctx, "todos", t.UserID, t)
}

// Get fetches one task. Returns (nil, nil) when absent.
func (r *Todos) Get(ctx context.Context, id string) (*model.Todo, error) {
	var t model.Todo
	found, err := r.get(ctx, "todos", id, &t)
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}

// List returns the user's tasks, newest first.
func (r *Todos) List(ctx context.Context, userID string) ([]model.Todo, error) {
	var todos []model.Todo
	ok, err := r.remoteList(ctx, &todos, "todos", remote.Query{
		Column: "user_id", Value: userID,
		OrderBy: "created_at", Descending: true,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		for i := range todos {
			_ = r.cacheOne(ctx, "todos", &todos[i])
		}
		return todos, nil
	}

	err = r.local.Select(ctx, &todos,
		"SELECT * FROM todos WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos locally: %w", err)
	}
	return todos, nil
}

// Update saves the full task record.
func (r *Todos) Update(ctx context.Context, t *model.Todo) error {
	t.UpdatedAt = model.Now()
	return r.update(ctx, "todos", t.UserID, t)
}

// Toggle flips the task's completed flag.
func (r *Todos) Toggle(ctx context.Context, userID, id string) (*model.Todo, error) {
	t, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, remote.ErrNotFound
	}
	t.Completed = !t.Completed
	if err := r.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a task.
func (r *Todos) Delete(ctx context.Context, userID, id string) error {
	return r.delete(ctx, "todos", userID, id)
}
