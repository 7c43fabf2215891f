package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planday/planday/internal/application/usecase/occurrence"
	"github.com/planday/planday/internal/domain/model"
)

func newDeleteCmd() *cobra.Command {
	var (
		parent    string
		patternID string
		date      string
		future    bool
		hard      bool
	)

	cmd := &cobra.Command{
		Use:   "delete [task-id]",
		Short: "Delete a task or a recurring occurrence",
		Long: `Delete removes a stored task (soft by default, recoverable with
restore) or carves occurrences out of a recurring series.

Series deletions name the source instead of a task id:
  planday delete --parent TASK-x --date 2026-02-02          # this one only
  planday delete --pattern PAT-x --date 2026-02-02 --future # this and later`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid := model.UserID(userID())

			if parent != "" || patternID != "" {
				if len(args) > 0 {
					return fmt.Errorf("use either a task id or --parent/--pattern, not both")
				}
				d, err := dateOrToday(date)
				if err != nil {
					return err
				}
				scope := occurrence.ScopeThisOnly
				if future {
					scope = occurrence.ScopeThisAndFuture
				}
				err = container.DeleteOccurrence().Execute(cmd.Context(), occurrence.DeleteOccurrenceInput{
					UserID:    uid,
					ParentID:  model.TaskID(parent),
					PatternID: model.PatternID(patternID),
					Date:      d,
					Scope:     scope,
				})
				if err != nil {
					return err
				}
				cmd.Printf("Removed occurrence(s) from %s\n", d)
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("task id required")
			}
			id := model.TaskID(args[0])
			if hard {
				if err := container.TaskService().HardDeleteTask(cmd.Context(), uid, id); err != nil {
					return err
				}
				cmd.Printf("Permanently deleted %s\n", id)
				return nil
			}
			if err := container.TaskService().SoftDeleteTask(cmd.Context(), uid, id); err != nil {
				return err
			}
			cmd.Printf("Deleted %s (restore with: planday restore %s)\n", id, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Recurring parent task id")
	cmd.Flags().StringVar(&patternID, "pattern", "", "Pattern id")
	cmd.Flags().StringVar(&date, "date", "", "Occurrence date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&future, "future", false, "Delete this occurrence and all later ones")
	cmd.Flags().BoolVar(&hard, "hard", false, "Delete permanently instead of soft delete")

	return cmd
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <task-id>",
		Short: "Restore a soft-deleted task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.TaskID(args[0])
			if err := container.TaskService().RestoreTask(cmd.Context(), model.UserID(userID()), id); err != nil {
				return err
			}
			cmd.Printf("Restored %s\n", id)
			return nil
		},
	}
}
