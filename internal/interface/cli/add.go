package cli

import (
	"github.com/spf13/cobra"

	"github.com/planday/planday/internal/application/usecase/taskops"
	"github.com/planday/planday/internal/domain/model"
)

func newAddCmd() *cobra.Command {
	var (
		date        string
		letter      string
		number      int
		description string
		timeOfDay   string
		rf          ruleFlags
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to a day",
		Long: `Add schedules a task on a day with a priority slot.

Without --prio-number the next free number in the letter group is used.
With --repeat the task becomes a recurring series; its occurrences show
up virtually until you act on one of them.

Examples:
  planday add "Water plants" --date 2026-02-02
  planday add "Standup notes" --repeat weekly --days mon,wed --prio B`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dateOrToday(date)
			if err != nil {
				return err
			}
			l, err := parseLetter(letter)
			if err != nil {
				return err
			}

			in := taskops.CreateTaskInput{
				UserID:        model.UserID(userID()),
				Title:         args[0],
				Description:   description,
				Letter:        l,
				Number:        number,
				ScheduledDate: d,
				ScheduledTime: timeOfDay,
			}
			if rf.set() {
				rule, err := rf.build(d)
				if err != nil {
					return err
				}
				in.Rule = &rule
			}

			t, err := container.TaskService().CreateTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			cmd.Printf("Added %s %s %q on %s\n", t.ID, t.Priority, t.Title, t.ScheduledDate)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Scheduled date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&letter, "prio", string(model.PriorityB), "Priority letter (A-D)")
	cmd.Flags().IntVar(&number, "prio-number", 0, "Priority number (default: next free)")
	cmd.Flags().StringVar(&description, "desc", "", "Description")
	cmd.Flags().StringVar(&timeOfDay, "time", "", "Time of day (HH:MM)")
	rf.register(cmd)

	return cmd
}
