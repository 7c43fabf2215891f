package cli

import (
	"github.com/spf13/cobra"

	"github.com/planday/planday/internal/application/usecase/occurrence"
	"github.com/planday/planday/internal/domain/model"
)

func newDoneCmd() *cobra.Command {
	var (
		parent    string
		patternID string
		date      string
	)

	cmd := &cobra.Command{
		Use:   "done [task-id]",
		Short: "Advance a task's status",
		Long: `Done cycles a task through pending, in progress, and completed.

Completing an after-completion task schedules its next occurrence
automatically. A virtual occurrence has no id yet; name its source with
--parent or --pattern plus --date to materialize it as completed work.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid := model.UserID(userID())

			if len(args) == 0 {
				return materializeOccurrence(cmd, uid, parent, patternID, date)
			}

			t, next, err := container.TaskService().CycleStatus(cmd.Context(), uid, model.TaskID(args[0]))
			if err != nil {
				return err
			}
			cmd.Printf("%s is now %s\n", t.ID, t.Status)
			if next != nil {
				cmd.Printf("Next occurrence %s scheduled on %s\n", next.ID, next.ScheduledDate)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Recurring parent task id of a virtual occurrence")
	cmd.Flags().StringVar(&patternID, "pattern", "", "Pattern id of a virtual occurrence")
	cmd.Flags().StringVar(&date, "date", "", "Occurrence date (YYYY-MM-DD)")

	return cmd
}

// materializeOccurrence turns a virtual occurrence into a stored task so
// further status changes have something to act on.
func materializeOccurrence(cmd *cobra.Command, uid model.UserID, parent, patternID, date string) error {
	d, err := dateOrToday(date)
	if err != nil {
		return err
	}
	t, err := container.Materialize().Execute(cmd.Context(), occurrence.MaterializeInput{
		UserID:    uid,
		ParentID:  model.TaskID(parent),
		PatternID: model.PatternID(patternID),
		Date:      d,
	})
	if err != nil {
		return err
	}
	cmd.Printf("Materialized %s %q on %s\n", t.ID, t.Title, t.ScheduledDate)
	return nil
}
