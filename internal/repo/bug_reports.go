package repo

import (
	"context"
	"fmt"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
)

// BugReports manages user-submitted problem reports.
type BugReports struct {
	*base
}

// Create files a new report.
func (r *BugReports) Create(ctx context.Context, b *model.BugReport) error {
	if b.ID == "" {
		b.ID = localstore.NewID()
	}
	if b.Status == "" {
		b.Status = "open"
	}
	now := model.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	return r.create(ctx, "bug_reports", b.UserID, b)
}

// List returns the user's reports, newest first.
func (r *BugReports) List(ctx context.Context, userID string) ([]model.BugReport, error) {
	var reports []model.BugReport
	ok, err := r.remoteList(ctx, &reports, "bug_reports", remote.Query{
		Column: "user_id", Value: userID,
		OrderBy: "created_at", Descending: true,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		for i := range reports {
			_ = r.cacheOne(ctx, "bug_reports", &reports[i])
		}
		return reports, nil
	}

	err = r.local.Select(ctx, &reports,
		"SELECT * FROM bug_reports WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bug reports locally: %w", err)
	}
	return reports, nil
}

// UpdateStatus moves a report through its workflow.
func (r *BugReports) UpdateStatus(ctx context.Context, userID, id, status string) (*model.BugReport, error) {
	var b model.BugReport
	found, err := r.get(ctx, "bug_reports", id, &b)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, remote.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = model.Now()
	if err := r.update(ctx, "bug_reports", userID, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
