package repo

import (
	"context"
	"fmt"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
)

// LoginHistory manages sign-in attempt records.
type LoginHistory struct {
	*base
}

// Record stores one sign-in attempt.
func (r *LoginHistory) Record(ctx context.Context, h *model.LoginHistory) error {
	if h.ID == "" {
		h.ID = localstore.NewID()
	}
	now := model.Now()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	h.UpdatedAt = now
	return r.create(ctx, "login_history", h.UserID, h)
}

// List returns the user's sign-in attempts, newest first.
func (r *LoginHistory) List(ctx context.Context, userID string, limit int) ([]model.LoginHistory, error) {
	var history []model.LoginHistory
	ok, err := r.remoteList(ctx, &history, "login_history", remote.Query{
		Column: "user_id", Value: userID,
		OrderBy: "created_at", Descending: true,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		for i := range history {
			_ = r.cacheOne(ctx, "login_history", &history[i])
		}
		return history, nil
	}

	err = r.local.Select(ctx, &history,
		"SELECT * FROM login_history WHERE user_id = ? ORDER BY created_at DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list login history locally: %w", err)
	}
	return history, nil
}
