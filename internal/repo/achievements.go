package repo

import (
	"context"
	"fmt"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
)

// Achievements manages per-user achievement progress records.
type Achievements struct {
	*base
}

// Create starts tracking an achievement for a user.
func (r *Achievements) Create(ctx context.Context, a *model.UserAchievement) error {
	if a.ID == "" {
		a.ID = localstore.NewID()
	}
	now := model.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	return r.create(ctx, "user_achievements", a.UserID, a)
}

// Get fetches one record. Returns (nil, nil) when absent.
func (r *Achievements) Get(ctx context.Context, id string) (*model.UserAchievement, error) {
	var a model.UserAchievement
	found, err := r.get(ctx, "user_achievements", id, &a)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

// List returns the user's achievement records.
func (r *Achievements) List(ctx context.Context, userID string) ([]model.UserAchievement, error) {
	var achievements []model.UserAchievement
	ok, err := r.remoteList(ctx, &achievements, "user_achievements", remote.Query{
		Column: "user_id", Value: userID,
		OrderBy: "created_at",
	})
	if err != nil {
		return nil, err
	}
	if ok {
		for i := range achievements {
			_ = r.cacheOne(ctx, "user_achievements", &achievements[i])
		}
		return achievements, nil
	}

	err = r.local.Select(ctx, &achievements,
		"SELECT * FROM user_achievements WHERE user_id = ? ORDER BY created_at", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements locally: %w", err)
	}
	return achievements, nil
}

// Update saves progress, stamping the unlock time on the transition
// into unlocked.
func (r *Achievements) Update(ctx context.Context, a *model.UserAchievement) error {
	if bool(a.Unlocked) && a.UnlockedAt.IsZero() {
		a.UnlockedAt = model.Now()
	}
	a.UpdatedAt = model.Now()
	return r.update(ctx, "user_achievements", a.UserID, a)
}
