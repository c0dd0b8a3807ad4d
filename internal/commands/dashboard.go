package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finchat-dev/finchat/internal/log"
)

func newDashboardCommand(flags *globalFlags) *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show spending charts, the monthly trend and budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}

			mountErr := a.dash.Mount(cmd.Context())
			snap, ok := a.dash.Snapshot()
			if !ok {
				return fmt.Errorf("loading dashboard: %w", mountErr)
			}
			if mountErr != nil {
				a.logger.Warn("budgets could not be loaded", log.FieldError, mountErr)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.renderer.Dashboard(snap, a.dash.Budgets().Entries()))
			if summary {
				fmt.Fprintln(out, a.renderer.Summary(snap))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "also show the plain summary tables")

	return cmd
}
