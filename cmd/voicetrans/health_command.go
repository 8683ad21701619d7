package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicetrans/internal/app"
	"voicetrans/internal/services/translate"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the translation server is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(session *app.Session) error {
				baseURL := session.Config().API.BaseURL
				if err := session.Client.HealthCheck(cmd.Context()); err != nil {
					return fmt.Errorf("%s (%s): %w", translate.UserMessage(err), baseURL, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Server %s is reachable\n", baseURL)
				return nil
			})
		},
	}
}
