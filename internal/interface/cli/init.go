package cli

import (
	"github.com/spf13/cobra"

	infraConfig "github.com/planday/planday/internal/infrastructure/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the planday home directory and default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := infraConfig.CreateDefaultSettings(globalConfig.Home()); err != nil {
				return err
			}
			cmd.Printf("Initialized %s\n", globalConfig.Home())
			return nil
		},
	}
}
