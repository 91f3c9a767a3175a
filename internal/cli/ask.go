package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Index the document, answer a single question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return fmt.Errorf("question must not be empty")
		}

		agent, cleanup, err := buildAgent(cmd.Context(), cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer cleanup()

		response, err := agent.Query(cmd.Context(), question)
		if err != nil {
			return err
		}

		msgs := messages(cfg)
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, response.Content)
		if cfg.Chat.ShowSources && response.Source != "" {
			fmt.Fprintf(out, "%s %s\n", msgs.SourceTitle, response.Source)
		}
		return nil
	},
}
