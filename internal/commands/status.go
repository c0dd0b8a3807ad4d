package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finchat-dev/finchat/internal/activitylog"
	"github.com/finchat-dev/finchat/internal/buildinfo"
	"github.com/finchat-dev/finchat/internal/importer"
)

const recentActivity = 5

func newStatusCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show gateway reachability, pending imports and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			reachable := "unreachable"
			if a.dash.Reachable(cmd.Context()) {
				reachable = "reachable"
			}
			fmt.Fprintf(out, "finchat %s\n", buildinfo.String())
			fmt.Fprintf(out, "Gateway: %s (%s)\n", a.client.BaseURL(), reachable)

			pending, err := importer.Scan(a.importDir())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Pending imports: %d in %s\n", len(pending), a.importDir())
			for _, f := range pending {
				fmt.Fprintf(out, "  %s (%d bytes)\n", f.Name, f.Size)
			}

			entries, err := activitylog.Last(a.root, recentActivity)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No recent activity.")
				return nil
			}
			fmt.Fprintln(out, "Recent activity:")
			for _, e := range entries {
				fmt.Fprintf(out, "  %s  %-13s %-6s %s  %s\n",
					e.Timestamp.Local().Format("2006-01-02 15:04"), e.Action, e.Outcome, e.Subject, e.Details)
			}
			return nil
		},
	}
}
