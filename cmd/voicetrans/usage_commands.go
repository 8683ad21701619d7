package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"voicetrans/internal/app"
	"voicetrans/internal/usage"
)

func newUsageCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show storage used by history against the probed quota",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(session *app.Session) error {
				if isTerminal(cmd.ErrOrStderr()) {
					fmt.Fprintln(cmd.ErrOrStderr(), "Probing storage quota…")
				}
				report, ok := session.StorageUsage(cmd.Context(), true)
				if jsonOutput {
					if !ok {
						return writeJSON(cmd, map[string]any{"available": false})
					}
					return writeJSON(cmd, struct {
						Available bool `json:"available"`
						usage.Report
					}{true, report})
				}
				out := cmd.OutOrStdout()
				if !ok {
					fmt.Fprintln(out, "Storage usage unavailable")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Used", "Total", "Percent", "Items"},
					[][]string{{
						report.UsedFormatted,
						report.TotalFormatted,
						fmt.Sprintf("%.1f%%", report.Percentage),
						strconv.Itoa(session.History.Count(cmd.Context())),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return cmd
}

func newQuotaCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Probe how many bytes the storage backend accepts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(session *app.Session) error {
				bytes := session.Quota.Probe(cmd.Context())
				if jsonOutput {
					return writeJSON(cmd, map[string]any{
						"backend":   session.Config().Storage.Backend,
						"bytes":     bytes,
						"formatted": usage.FormatBytes(bytes),
					})
				}
				out := cmd.OutOrStdout()
				if bytes == 0 {
					fmt.Fprintln(out, "Quota could not be determined")
					return nil
				}
				fmt.Fprintf(out, "Storage quota (%s): %s (%d bytes)\n", session.Config().Storage.Backend, usage.FormatBytes(bytes), bytes)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}
