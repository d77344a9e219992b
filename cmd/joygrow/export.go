package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/repo"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/report"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export study data to an Excel workbook",
	Long: `Export study data to an Excel workbook.

Works offline: unreachable data falls back to the local cache the same
way any other read does.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		userID, err := a.requireUser()
		if err != nil {
			return err
		}

		src := reportSource{repos: a.repos}
		if err := report.ExportStudyReport(cmd.Context(), src, userID, exportOutput); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "joygrow-report.xlsx", "output file")
}

// reportSource adapts the repository set to the report.Source
// interface.
type reportSource struct {
	repos *repo.Repositories
}

func (s reportSource) QuizAttempts(ctx context.Context, userID string) ([]model.QuizAttempt, error) {
	return s.repos.QuizAttempts.List(ctx, userID)
}

func (s reportSource) PomodoroSessions(ctx context.Context, userID string) ([]model.PomodoroSession, error) {
	return s.repos.Pomodoro.ListSessions(ctx, userID)
}

func (s reportSource) LoginHistory(ctx context.Context, userID string, limit int) ([]model.LoginHistory, error) {
	return s.repos.LoginHistory.List(ctx, userID, limit)
}

func (s reportSource) ActivityLogs(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	return s.repos.ActivityLogs.Recent(ctx, limit)
}
