// Package report exports study data to spreadsheet files for review
// outside the app.
package report

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
)

// Source provides the data an export pulls. The repository set
// satisfies this through thin adapters in the command layer.
type Source interface {
	QuizAttempts(ctx context.Context, userID string) ([]model.QuizAttempt, error)
	PomodoroSessions(ctx context.Context, userID string) ([]model.PomodoroSession, error)
	LoginHistory(ctx context.Context, userID string, limit int) ([]model.LoginHistory, error)
	ActivityLogs(ctx context.Context, limit int) ([]model.ActivityLog, error)
}

// ExportStudyReport writes a workbook with one sheet per data set to
// path. Works offline; the source falls back to cached rows like any
// other read.
func ExportStudyReport(ctx context.Context, src Source, userID, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	attempts, err := src.QuizAttempts(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load quiz attempts: %w", err)
	}
	if err := writeAttemptsSheet(f, attempts); err != nil {
		return err
	}

	sessions, err := src.PomodoroSessions(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load pomodoro sessions: %w", err)
	}
	if err := writeSessionsSheet(f, sessions); err != nil {
		return err
	}

	history, err := src.LoginHistory(ctx, userID, 500)
	if err != nil {
		return fmt.Errorf("failed to load login history: %w", err)
	}
	if err := writeLoginSheet(f, history); err != nil {
		return err
	}

	activity, err := src.ActivityLogs(ctx, 1000)
	if err != nil {
		return fmt.Errorf("failed to load activity logs: %w", err)
	}
	if err := writeActivitySheet(f, activity); err != nil {
		return err
	}

	// The default sheet is replaced by the first data sheet.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func writeAttemptsSheet(f *excelize.File, attempts []model.QuizAttempt) error {
	const sheet = "Quiz Attempts"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	headers := []any{"Completed", "Topic", "Quiz", "Score", "Correct", "Questions", "Duration (s)"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, a := range attempts {
		row := []any{
			a.CompletedAt.String(),
			a.Topic,
			a.QuizID,
			a.Score,
			a.CorrectAnswers,
			a.TotalQuestions,
			a.DurationSeconds,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write attempt row: %w", err)
		}
	}
	return nil
}

func writeSessionsSheet(f *excelize.File, sessions []model.PomodoroSession) error {
	const sheet = "Pomodoro"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	headers := []any{"Started", "Ended", "Type", "Minutes", "Completed"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, s := range sessions {
		row := []any{
			s.StartedAt.String(),
			s.EndedAt.String(),
			s.SessionType,
			s.DurationMinutes,
			bool(s.Completed),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write session row: %w", err)
		}
	}
	return nil
}

func writeActivitySheet(f *excelize.File, logs []model.ActivityLog) error {
	const sheet = "Activity"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	headers := []any{"When", "User", "Action"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, l := range logs {
		row := []any{
			l.CreatedAt.String(),
			l.Username,
			l.Action,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write activity row: %w", err)
		}
	}
	return nil
}

func writeLoginSheet(f *excelize.File, history []model.LoginHistory) error {
	const sheet = "Logins"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	headers := []any{"When", "Success", "IP"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, h := range history {
		row := []any{
			h.CreatedAt.String(),
			bool(h.Success),
			h.IPAddress,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write login row: %w", err)
		}
	}
	return nil
}
