package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <question...>",
		Short: "Ask a question about your spending",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}

			answer, err := a.dash.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
}

func newAlertsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "List categories that are over budget this month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}

			alerts, err := a.dash.Alerts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Alerts(alerts))
			return nil
		},
	}
}
