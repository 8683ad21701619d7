package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voicetrans/internal/app"
	"voicetrans/internal/history"
	"voicetrans/internal/services"
	"voicetrans/internal/services/translate"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var voiceURL string
	var model string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "translate [audio-file]",
		Short: "Transcribe and translate an audio file or URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voiceURL = strings.TrimSpace(voiceURL)
			if len(args) == 0 && voiceURL == "" {
				return services.Wrap(services.ErrValidation, "translate", "", "provide an audio file or --url", nil)
			}
			if len(args) == 1 && voiceURL != "" {
				return services.Wrap(services.ErrValidation, "translate", "", "provide either an audio file or --url, not both", nil)
			}

			return ctx.withSession(func(session *app.Session) error {
				if isTerminal(cmd.ErrOrStderr()) {
					fmt.Fprintln(cmd.ErrOrStderr(), "Translating…")
				}

				var (
					out app.Translation
					err error
				)
				if len(args) == 1 {
					out, err = session.TranslateFile(cmd.Context(), args[0], model)
				} else {
					out, err = session.Translate(cmd.Context(), translate.Request{Model: model, VoiceURL: voiceURL})
				}
				if err != nil {
					var statusErr *translate.StatusError
					if errors.As(err, &statusErr) || errors.Is(err, services.ErrTransport) || errors.Is(err, services.ErrTimeout) {
						return fmt.Errorf("%s: %w", translate.UserMessage(err), err)
					}
					return err
				}

				if jsonOutput {
					return writeJSON(cmd, out.Result)
				}
				printTranslation(cmd, out)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&voiceURL, "url", "", "Audio URL for the server to fetch instead of uploading a file")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model identifier (defaults to api.default_model)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw result as JSON")
	return cmd
}

func printTranslation(cmd *cobra.Command, out app.Translation) {
	w := cmd.OutOrStdout()
	result := out.Result
	if result.AIResponse == nil {
		fmt.Fprintln(w, fallback(result.Message, "No translation returned"))
		if result.Error != "" {
			fmt.Fprintf(w, "Server error: %s\n", result.Error)
		}
		return
	}
	fmt.Fprintf(w, "Chinese:    %s\n", result.AIResponse.Chinese)
	fmt.Fprintf(w, "Pinyin:     %s\n", result.AIResponse.Pinyin)
	fmt.Fprintf(w, "Vietnamese: %s\n", result.AIResponse.Vietnamese)

	switch out.Save.Status {
	case history.StatusOK:
		fmt.Fprintf(w, "Saved to history as %s\n", out.Item.ID)
	case history.StatusRecovered:
		fmt.Fprintf(w, "Saved to history as %s (older items were dropped to make room)\n", out.Item.ID)
	case history.StatusFailed:
		fmt.Fprintln(w, "Could not save to history (see log for details)")
	case history.StatusSkipped:
		fmt.Fprintln(w, "Result incomplete; not saved to history")
	}
}
