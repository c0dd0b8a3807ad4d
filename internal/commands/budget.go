package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/finchat-dev/finchat/internal/activitylog"
	"github.com/finchat-dev/finchat/internal/log"
)

func newBudgetCommand(flags *globalFlags) *cobra.Command {
	budgetCmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage monthly category budgets",
	}
	budgetCmd.AddCommand(
		newBudgetListCommand(flags),
		newBudgetSetCommand(flags),
		newBudgetDeleteCommand(flags),
	)
	return budgetCmd
}

func newBudgetListCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the budget table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}

			store := a.dash.Budgets()
			if err := store.Resync(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Budgets(store.Entries()))
			return nil
		},
	}
}

func newBudgetSetCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <category> [amount]",
		Short: "Set the monthly budget for a category",
		Long:  "Set the monthly budget for a category. The amount defaults to budgets.default_amount from the config.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}

			category, err := a.category(args[0])
			if err != nil {
				return err
			}
			amount := a.cfg.Budgets.DefaultAmount
			if len(args) > 1 {
				amount = args[1]
			}

			store := a.dash.Budgets()
			err = store.SetBudget(cmd.Context(), category, amount)
			a.recordActivity(activitylog.Entry{
				Action:  activitylog.ActionBudgetSet,
				Subject: category,
				Details: describe("monthly budget "+amount, err),
				Outcome: activitylog.Outcome(err),
			})

			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Budgets(store.Entries()))
			return err
		},
	}
}

func newBudgetDeleteCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <category>",
		Aliases: []string{"rm"},
		Short:   "Remove the budget for a category",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}

			category, err := a.category(args[0])
			if err != nil {
				return err
			}

			store := a.dash.Budgets()
			err = store.DeleteBudget(cmd.Context(), category)
			a.recordActivity(activitylog.Entry{
				Action:  activitylog.ActionBudgetDelete,
				Subject: category,
				Details: describe("budget removed", err),
				Outcome: activitylog.Outcome(err),
			})

			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Budgets(store.Entries()))
			return err
		},
	}
}

// category resolves a user-typed category against the configured list.
func (a *app) category(name string) (string, error) {
	category, ok := a.cfg.Category(name)
	if !ok {
		return "", fmt.Errorf("unknown category %q (choose one of: %s)",
			name, strings.Join(a.cfg.Budgets.Categories, ", "))
	}
	return category, nil
}

// recordActivity appends e to the activity log. Failures are logged, not
// returned.
func (a *app) recordActivity(e activitylog.Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := activitylog.Append(a.root, e); err != nil {
		a.logger.Warn("failed to write activity log", log.FieldError, err)
	}
}

func describe(details string, err error) string {
	if err != nil {
		return details + ": " + err.Error()
	}
	return details
}
