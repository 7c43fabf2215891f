package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planday/planday/internal/application/usecase/dayview"
	"github.com/planday/planday/internal/domain/model"
)

func newReorderCmd() *cobra.Command {
	var (
		date     string
		letter   string
		fillGaps bool
	)

	cmd := &cobra.Command{
		Use:   "reorder [task-id...]",
		Short: "Reorder a day's priorities",
		Long: `Reorder renumbers tasks within a letter group to the given order,
assigning dense numbers 1..n. With --fill-gaps it instead closes the
numbering gaps left by deletions, keeping the relative order.

Examples:
  planday reorder --date 2026-02-02 --letter A TASK-3 TASK-1 TASK-2
  planday reorder --date 2026-02-02 --fill-gaps`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dateOrToday(date)
			if err != nil {
				return err
			}
			uid := model.UserID(userID())

			// The reorder engine works on the store; load the day first.
			if _, err := container.DayView().Execute(cmd.Context(), dayview.Input{
				UserID: uid,
				Date:   d,
				Reload: true,
			}); err != nil {
				return err
			}

			if fillGaps {
				changed, err := container.Reorder().FillGaps(cmd.Context(), uid, d)
				if err != nil {
					return err
				}
				if changed {
					cmd.Printf("Renumbered %s\n", d)
				} else {
					cmd.Printf("Nothing to renumber on %s\n", d)
				}
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("task ids required (or use --fill-gaps)")
			}
			l, err := parseLetter(letter)
			if err != nil {
				return err
			}
			ids := make([]model.TaskID, len(args))
			for i, a := range args {
				ids[i] = model.TaskID(a)
			}
			if err := container.Reorder().ApplyOrder(cmd.Context(), uid, ids, l); err != nil {
				return err
			}
			cmd.Printf("Reordered %d task(s) in group %s\n", len(ids), l)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date to reorder (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&letter, "letter", string(model.PriorityA), "Priority letter group")
	cmd.Flags().BoolVar(&fillGaps, "fill-gaps", false, "Close numbering gaps instead of applying an explicit order")

	return cmd
}
