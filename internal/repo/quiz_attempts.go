package repo

import (
	"context"
	"fmt"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
)

// QuizAttempts manages quiz play-through records.
type QuizAttempts struct {
	*base
}

// Create records a finished attempt.
func (r *QuizAttempts) Create(ctx context.Context, a *model.QuizAttempt) error {
	if a.ID == "" {
		a.ID = localstore.NewID()
	}
	now := model.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.CompletedAt.IsZero() {
		a.CompletedAt = now
	}
	a.UpdatedAt = now
	return r.create(ctx, "quiz_attempts", a.UserID, a)
}

// Get fetches one attempt. Returns (nil, nil) when absent.
func (r *QuizAttempts) Get(ctx context.Context, id string) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	found, err := r.get(ctx, "quiz_attempts", id, &a)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

// List returns the user's attempts, newest first.
func (r *QuizAttempts) List(ctx context.Context, userID string) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	ok, err := r.remoteList(ctx, &attempts, "quiz_attempts", remote.Query{
		Column: "user_id", Value: userID,
		OrderBy: "created_at", Descending: true,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		for i := range attempts {
			_ = r.cacheOne(ctx, "quiz_attempts", &attempts[i])
		}
		return attempts, nil
	}

	err = r.local.Select(ctx, &attempts,
		"SELECT * FROM quiz_attempts WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz attempts locally: %w", err)
	}
	return attempts, nil
}

// Delete removes an attempt.
func (r *QuizAttempts) Delete(ctx context.Context, userID, id string) error {
	return r.delete(ctx, "quiz_attempts", userID, id)
}
