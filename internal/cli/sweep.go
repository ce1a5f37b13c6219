package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "sweep",
		Short:        "Delete expired user and admin sessions once",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer rt.app.Close()

			n := rt.app.Reaper(rt.cfg, rt.log).SweepOnce(cmd.Context())

			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired sessions\n", n)
			return nil
		},
	}
}
