package repo

import (
	"context"
	"fmt"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
)

// ActivityLogs manages the app-wide audit trail. The table has no
// user_id column, so queued offline entries are attributed to the
// acting user passed in explicitly.
type ActivityLogs struct {
	*base
}

// Log records an action. actorID owns any queued replay; it may be
// empty for system actions, which then queue under a shared bucket.
func (r *ActivityLogs) Log(ctx context.Context, actorID string, l *model.ActivityLog) error {
	if l.ID == "" {
		l.ID = localstore.NewID()
	}
	now := model.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	if actorID == "" {
		actorID = "system"
	}
	return r.create(ctx, "activity_logs", actorID, l)
}

// Recent returns the latest entries across all users.
func (r *ActivityLogs) Recent(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	var logs []model.ActivityLog
	ok, err := r.remoteList(ctx, &logs, "activity_logs", remote.Query{
		OrderBy: "created_at", Descending: true,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		for i := range logs {
			_ = r.cacheOne(ctx, "activity_logs", &logs[i])
		}
		return logs, nil
	}

	err = r.local.Select(ctx, &logs,
		"SELECT * FROM activity_logs ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs locally: %w", err)
	}
	return logs, nil
}
