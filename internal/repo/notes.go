package repo

import (
	"context"
	"fmt"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
)

// Notes manages study notes.
type Notes struct {
	*base
}

// Create saves a new note.
func (r *Notes) Create(ctx context.Context, n *model.Note) error {
	if n.ID == "" {
		n.ID = localstore.NewID()
	}
	now := model.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	return r.create(ctx, "notes", n.UserID, n)
}

// Get fetches one note. Returns (nil, nil) when absent.
func (r *Notes) Get(ctx context.Context, id string) (*model.Note, error) {
	var n model.Note
	found, err := r.get(ctx, "notes", id, &n)
	if err != nil || !found {
		return nil, err
	}
	return &n, nil
}

// List returns the user's notes, pinned first then newest first.
func (r *Notes) List(ctx context.Context, userID string) ([]model.Note, error) {
	var notes []model.Note
	ok, err := r.remoteList(ctx, &notes, "notes", remote.Query{
		Column: "user_id", Value: userID,
		OrderBy: "created_at", Descending: true,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		for i := range notes {
			_ = r.cacheOne(ctx, "notes", &notes[i])
		}
		return sortPinnedFirst(notes), nil
	}

	err = r.local.Select(ctx, &notes,
		"SELECT * FROM notes WHERE user_id = ? ORDER BY pinned DESC, created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes locally: %w", err)
	}
	return notes, nil
}

// sortPinnedFirst reorders a newest-first slice so pinned notes lead,
// keeping relative order within each group.
func sortPinnedFirst(notes []model.Note) []model.Note {
	ordered := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if n.Pinned {
			ordered = append(ordered, n)
		}
	}
	for _, n := range notes {
		if !n.Pinned {
			ordered = append(ordered, n)
		}
	}
	return ordered
}

// Update saves the full note record.
func (r *Notes) Update(ctx context.Context, n *model.Note) error {
	n.UpdatedAt = model.Now()
	return r.update(ctx, "notes", n.UserID, n)
}

// Delete removes a note.
func (r *Notes) Delete(ctx context.Context, userID, id string) error {
	return r.delete(ctx, "notes", userID, id)
}
