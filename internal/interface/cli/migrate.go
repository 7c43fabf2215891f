package cli

import (
	"github.com/spf13/cobra"

	"github.com/planday/planday/internal/application/usecase/migrate"
	"github.com/planday/planday/internal/domain/model"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Convert legacy recurring tasks to patterns",
		Long: `Migrate converts every task that still carries an embedded
recurrence rule into a standalone pattern, pre-generates instances up
to the configured horizon, and re-links existing instances. Tasks that
fail to convert are reported and left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := container.Migrate().Execute(cmd.Context(), migrate.Input{
				UserID: model.UserID(userID()),
			})
			if err != nil {
				return err
			}

			cmd.Printf("Patterns created:   %d\n", res.PatternsCreated)
			cmd.Printf("Instances created:  %d\n", res.InstancesCreated)
			cmd.Printf("Instances relinked: %d\n", res.InstancesRelinked)
			for _, f := range res.Failures {
				Warn("migration of %s failed: %v", f.TaskID, f.Err)
			}
			if len(res.Failures) > 0 {
				cmd.Printf("Failed:             %d (see log)\n", len(res.Failures))
			}
			return nil
		},
	}
}
