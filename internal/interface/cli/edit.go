package cli

import (
	"github.com/spf13/cobra"

	"github.com/planday/planday/internal/application/usecase/taskops"
	"github.com/planday/planday/internal/domain/model"
)

func newEditCmd() *cobra.Command {
	var (
		title       string
		description string
		date        string
		timeOfDay   string
	)

	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Edit a task's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := taskops.UpdateTaskInput{
				UserID: model.UserID(userID()),
				TaskID: model.TaskID(args[0]),
			}
			if cmd.Flags().Changed("title") {
				in.Title = &title
			}
			if cmd.Flags().Changed("desc") {
				in.Description = &description
			}
			if cmd.Flags().Changed("date") {
				d, err := model.ParseDate(date)
				if err != nil {
					return err
				}
				in.ScheduledDate = &d
			}
			if cmd.Flags().Changed("time") {
				in.ScheduledTime = &timeOfDay
			}

			t, err := container.TaskService().UpdateTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			cmd.Printf("Updated %s %q on %s\n", t.ID, t.Title, t.ScheduledDate)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "desc", "", "New description")
	cmd.Flags().StringVar(&date, "date", "", "New scheduled date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&timeOfDay, "time", "", "New time of day (HH:MM)")

	return cmd
}
