package repo

import (
	"context"
	"fmt"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
)

// Notifications manages in-app messages.
type Notifications struct {
	*base
}

// Create delivers a notification to a user.
func (r *Notifications) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = localstore.NewID()
	}
	if n.Type == "" {
		n.Type = "info"
	}
	now := model.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	return r.create(ctx, "notifications", n.UserID, n)
}

// List returns the user's notifications, newest first.
func (r *Notifications) List(ctx context.Context, userID string) ([]model.Notification, error) {
	var notifications []model.Notification
	ok, err := r.remoteList(ctx, &notifications, "notifications", remote.Query{
		Column: "user_id", Value: userID,
		OrderBy: "created_at", Descending: true,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		for i := range notifications {
			_ = r.cacheOne(ctx, "notifications", &notifications[i])
		}
		return notifications, nil
	}

	err = r.local.Select(ctx, &notifications,
		"SELECT * FROM notifications WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications locally: %w", err)
	}
	return notifications, nil
}

// MarkRead flags a notification as read.
func (r *Notifications) MarkRead(ctx context.Context, userID, id string) (*model.Notification, error) {
	var n model.Notification
	found, err := r.get(ctx, "notifications", id, &n)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, remote.ErrNotFound
	}
	n.Read = true
	n.UpdatedAt = model.Now()
	if err := r.update(ctx, "notifications", userID, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Delete removes a notification.
func (r *Notifications) Delete(ctx context.Context, userID, id string) error {
	return r.delete(ctx, "notifications", userID, id)
}
