package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
)

// Settings manages the app-wide settings singleton and the per-user
// preferences singletons. Both are keyed upserts: app settings on the
// fixed id, user settings on user_id.
type Settings struct {
	*base
}

// GetApp fetches the app-wide settings. Returns (nil, nil) when none
// have been saved yet.
func (r *Settings) GetApp(ctx context.Context) (*model.AppSettings, error) {
	var s model.AppSettings
	found, err := r.get(ctx, "app_settings", model.AppSettingsID, &s)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

// SaveApp inserts or updates the app-wide settings singleton. actorID
// owns any queued replay.
func (r *Settings) SaveApp(ctx context.Context, actorID string, s *model.AppSettings) error {
	s.ID = model.AppSettingsID
	now := model.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if actorID == "" {
		actorID = "system"
	}
	return r.upsert(ctx, "app_settings", "id", actorID, s)
}

// GetUser fetches a user's preferences. Returns (nil, nil) when the
// user has never saved any.
func (r *Settings) GetUser(ctx context.Context, userID string) (*model.UserSettings, error) {
	var s model.UserSettings

	if r.online() {
		err := r.remote.GetBy(ctx, &s, "user_settings", "user_id", userID)
		switch {
		case err == nil:
			return &s, r.cacheOne(ctx, "user_settings", &s)
		case remote.IsNotFound(err):
			return nil, nil
		case remote.IsUnavailable(err):
			r.log.Debug().Err(err).Msg("remote unreachable, reading user settings locally")
		default:
			return nil, err
		}
	}

	err := r.local.Get(ctx, &s,
		"SELECT * FROM user_settings WHERE user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user settings locally: %w", err)
	}
	return &s, nil
}

// SaveUser inserts or updates a user's preferences, keyed on user_id.
func (r *Settings) SaveUser(ctx context.Context, s *model.UserSettings) error {
	if s.ID == "" {
		s.ID = localstore.NewID()
	}
	now := model.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return r.upsert(ctx, "user_settings", "user_id", s.UserID, s)
}
