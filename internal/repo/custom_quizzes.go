package repo

import (
	"context"
	"fmt"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
)

// CustomQuizzes manages user-authored quizzes.
type CustomQuizzes struct {
	*base
}

// Create saves a new quiz.
func (r *CustomQuizzes) Create(ctx context.Context, q *model.CustomQuiz) error {
	if q.ID == "" {
		q.ID = localstore.NewID()
	}
	now := model.Now()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now
	return r.create(ctx, "custom_quizzes", q.UserID, q)
}

// Get fetches one quiz. Returns (nil, nil) when absent.
func (r *CustomQuizzes) Get(ctx context.Context, id string) (*model.CustomQuiz, error) {
	var q model.CustomQuiz
	found, err := r.get(ctx, "custom_quizzes", id, &q)
	if err != nil || !found {
		return nil, err
	}
	return &q, nil
}

// List returns the user's quizzes, newest first.
func (r *CustomQuizzes) List(ctx context.Context, userID string) ([]model.CustomQuiz, error) {
	var quizzes []model.CustomQuiz
	ok, err := r.remoteList(ctx, &quizzes, "custom_quizzes", remote.Query{
		Column: "user_id", Value: userID,
		OrderBy: "created_at", Descending: true,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		for i := range quizzes {
			_ = r.cacheOne(ctx, "custom_quizzes", &quizzes[i])
		}
		return quizzes, nil
	}

	err = r.local.Select(ctx, &quizzes,
		"SELECT * FROM custom_quizzes WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom quizzes locally: %w", err)
	}
	return quizzes, nil
}

// ListPublic returns quizzes shared by any user. Offline, only cached
// rows are visible.
func (r *CustomQuizzes) ListPublic(ctx context.Context) ([]model.CustomQuiz, error) {
	var quizzes []model.CustomQuiz
	ok, err := r.remoteList(ctx, &quizzes, "custom_quizzes", remote.Query{
		Column: "is_public", Value: model.Bool(true),
		OrderBy: "created_at", Descending: true,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		for i := range quizzes {
			_ = r.cacheOne(ctx, "custom_quizzes", &quizzes[i])
		}
		return quizzes, nil
	}

	err = r.local.Select(ctx, &quizzes,
		"SELECT * FROM custom_quizzes WHERE is_public = 1 ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list public quizzes locally: %w", err)
	}
	return quizzes, nil
}

// Update saves the full quiz record.
func (r *CustomQuizzes) Update(ctx context.Context, q *model.CustomQuiz) error {
	q.UpdatedAt = model.Now()
	return r.update(ctx, "custom_quizzes", q.UserID, q)
}

// Delete removes a quiz.
func (r *CustomQuizzes) Delete(ctx context.Context, userID, id string) error {
	return r.delete(ctx, "custom_quizzes", userID, id)
}
