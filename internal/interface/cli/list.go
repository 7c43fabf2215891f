package cli

import (
	"github.com/spf13/cobra"

	"github.com/planday/planday/internal/application/usecase/dayview"
	"github.com/planday/planday/internal/application/usecase/occurrence"
	"github.com/planday/planday/internal/domain/model"
)

func newListCmd() *cobra.Command {
	var (
		date   string
		ensure bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tasks visible on a day",
		Long: `List resolves the day's plan: stored tasks plus the virtual
occurrences implied by recurring series, sorted by priority.

With --ensure, pattern instances up to the configured horizon are
materialized first so the day survives offline inspection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dateOrToday(date)
			if err != nil {
				return err
			}
			uid := model.UserID(userID())

			if ensure {
				horizon := d.AddDays(globalConfig.HorizonDays())
				n, err := container.Ensure().Execute(cmd.Context(), occurrence.EnsureInput{
					UserID: uid,
					Until:  horizon,
				})
				if err != nil {
					return err
				}
				if n > 0 {
					Info("materialized %d recurring instance(s) up to %s", n, horizon)
				}
			}

			visible, err := container.DayView().Execute(cmd.Context(), dayview.Input{
				UserID: uid,
				Date:   d,
				Reload: true,
			})
			if err != nil {
				return err
			}

			cmd.Printf("Plan for %s\n", d)
			printTasks(cmd.OutOrStdout(), visible)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date to list (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&ensure, "ensure", false, "Pre-generate pattern instances before listing")

	return cmd
}
