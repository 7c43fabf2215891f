// Package cli assembles the planday command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/planday/planday/internal/app/config"
	infraConfig "github.com/planday/planday/internal/infrastructure/config"
	"github.com/planday/planday/internal/infrastructure/di"
)

// globalConfig holds the loaded configuration for all commands.
var globalConfig config.Config

// container is built once per invocation by PersistentPreRunE and torn
// down by PersistentPostRunE.
var container *di.Container

// NewRoot builds the root command with all subcommands attached.
func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "planday",
		Short:         "Day planner with recurring tasks",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Priority: ENV > setting.yml > defaults
			cfg, err := infraConfig.LoadSettings(os.Getenv("PLANDAY_HOME"))
			if err != nil {
				return err
			}
			globalConfig = cfg
			InitGlobalLogger(cfg.LogLevel())

			c, err := di.NewContainer(cfg)
			if err != nil {
				return err
			}
			container = c
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if container == nil {
				return nil
			}
			err := container.Close()
			container = nil
			return err
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDoneCmd())
	cmd.AddCommand(newEditCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newReorderCmd())
	cmd.AddCommand(newRecurCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// userID returns the configured user for this invocation.
func userID() string {
	return globalConfig.UserID()
}
