package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voicetrans/internal/app"
	"voicetrans/internal/history"
	"voicetrans/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage saved translations",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryDeleteCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved translations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(session *app.Session) error {
				items, outcome := session.History.List(cmd.Context())
				if limit > 0 && len(items) > limit {
					items = items[:limit]
				}
				if jsonOutput {
					return writeJSON(cmd, items)
				}
				out := cmd.OutOrStdout()
				if outcome.Status == history.StatusHealed {
					fmt.Fprintln(cmd.ErrOrStderr(), "History contained damaged entries; they were removed.")
				}
				if len(items) == 0 {
					fmt.Fprintln(out, "History is empty")
					return nil
				}
				fmt.Fprintln(out, renderHistoryTable(items))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many items")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print items as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one saved translation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withSession(func(session *app.Session) error {
				item, found := session.History.Get(cmd.Context(), id)
				if !found {
					return services.Wrap(services.ErrValidation, "history", "show", fmt.Sprintf("no item with id %s", id), nil)
				}
				if jsonOutput {
					return writeJSON(cmd, item)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderItemDetails(item))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the item as JSON")
	return cmd
}

func newHistoryDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete saved translations by id",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(session *app.Session) error {
				out := cmd.OutOrStdout()
				for _, id := range args {
					id = strings.TrimSpace(id)
					if outcome := session.History.Delete(cmd.Context(), id); outcome.Failed() {
						return fmt.Errorf("delete %s: %w", id, outcome.Err)
					}
					fmt.Fprintf(out, "Deleted %s\n", id)
				}
				return nil
			})
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved translations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return services.Wrap(services.ErrValidation, "history", "clear", "refusing to clear history without --yes", nil)
			}
			return ctx.withSession(func(session *app.Session) error {
				if outcome := session.History.Clear(cmd.Context()); outcome.Failed() {
					return fmt.Errorf("clear history: %w", outcome.Err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm clearing all history")
	return cmd
}
