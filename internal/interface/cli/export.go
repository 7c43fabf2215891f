package cli

import (
	"github.com/spf13/cobra"

	"github.com/planday/planday/internal/application/usecase/dayview"
	"github.com/planday/planday/internal/domain/model"
)

func newExportCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a day's plan to a markdown file",
		Long: `Export writes the day's resolved plan to
<home>/plans/<date>/plan.md with a meta.yml sidecar.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dateOrToday(date)
			if err != nil {
				return err
			}

			visible, err := container.DayView().Execute(cmd.Context(), dayview.Input{
				UserID: model.UserID(userID()),
				Date:   d,
				Reload: true,
			})
			if err != nil {
				return err
			}

			dir, err := container.PlanExporter().Export(d, visible)
			if err != nil {
				return err
			}
			cmd.Printf("Exported %d task(s) to %s\n", len(visible), dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date to export (YYYY-MM-DD, default today)")

	return cmd
}
