package cli

import (
	"github.com/spf13/cobra"

	"github.com/planday/planday/internal/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the planday version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(buildinfo.GetVersion())
			return nil
		},
	}
}
