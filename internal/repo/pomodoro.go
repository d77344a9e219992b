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

// Pomodoro manages focus session records and the per-user timer
// settings singleton.
type Pomodoro struct {
	*base
}

// CreateSession records a finished focus or break interval.
func (r *Pomodoro) CreateSession(ctx context.Context, s *model.PomodoroSession) error {
	if s.ID == "" {
		s.ID = localstore.NewID()
	}
	now := model.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return r.create(ctx, "pomodoro_sessions", s.UserID, s)
}

// ListSessions returns the user's sessions, newest first.
func (r *Pomodoro) ListSessions(ctx context.Context, userID string) ([]model.PomodoroSession, error) {
	var sessions []model.PomodoroSession
	ok, err := r.remoteList(ctx, &sessions, "pomodoro_sessions", remote.Query{
		Column: "user_id", Value: userID,
		OrderBy: "created_at", Descending: true,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		for i := range sessions {
			_ = r.cacheOne(ctx, "pomodoro_sessions", &sessions[i])
		}
		return sessions, nil
	}

	err = r.local.Select(ctx, &sessions,
		"SELECT * FROM pomodoro_sessions WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pomodoro sessions locally: %w", err)
	}
	return sessions, nil
}

// GetSettings fetches the user's timer settings. Returns (nil, nil)
// when the user has never saved any.
func (r *Pomodoro) GetSettings(ctx context.Context, userID string) (*model.PomodoroSettings, error) {
	var s model.PomodoroSettings

	if r.online() {
		err := r.remote.GetBy(ctx, &s, "pomodoro_settings", "user_id", userID)
		switch {
		case err == nil:
			return &s, r.cacheOne(ctx, "pomodoro_settings", &s)
		case remote.IsNotFound(err):
			return nil, nil
		case remote.IsUnavailable(err):
			r.log.Debug().Err(err).Msg("remote unreachable, reading pomodoro settings locally")
		default:
			return nil, err
		}
	}

	err := r.local.Get(ctx, &s,
		"SELECT * FROM pomodoro_settings WHERE user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pomodoro settings locally: %w", err)
	}
	return &s, nil
}

// SaveSettings inserts or updates the user's timer settings, keyed on
// user_id.
func (r *Pomodoro) SaveSettings(ctx context.Context, s *model.PomodoroSettings) error {
	if s.ID == "" {
		s.ID = localstore.NewID()
	}
	now := model.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return r.upsert(ctx, "pomodoro_settings", "user_id", s.UserID, s)
}
