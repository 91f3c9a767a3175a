package cli

import (
	"context"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pdf-agent/internal/repl"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Index the document and start the interactive question loop (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func runChat(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	log.Info().Msg("Iniciando o processo de configuração do agente de IA...")

	agent, cleanup, err := buildAgent(ctx, cfg, errOut)
	if err != nil {
		return err
	}
	defer cleanup()

	loop := repl.New(agent, in, out, messages(cfg), cfg.Chat.ShowSources)
	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
