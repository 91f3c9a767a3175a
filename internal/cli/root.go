package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pdf-agent/internal/config"
	"pdf-agent/internal/helper"
)

const (
	defaultConfigPath = "./configs/config.yaml"
	configEnv         = "PDF_AGENT_CONFIG"
)

var (
	cfgFile  string
	filePath string
	debug    bool
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pdf-agent",
	Short: "Ask questions about a PDF document",
	Long: `pdf-agent loads a document, splits it into chunks, embeds them into an in-memory
vector store and answers questions with retrieval augmented generation.

Example usage:
  pdf-agent                          # chat about ./seu_documento.pdf
  pdf-agent ask "Qual é o prazo?"    # answer one question and exit
  pdf-agent chunks --file manual.pdf # print the chunks without calling any API`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = os.Getenv(configEnv)
		}
		if path == "" {
			path = defaultConfigPath
		}

		var err error
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if filePath != "" {
			cfg.RAG.DocumentPath = filePath
		}

		helper.SetupLogger(cfg.LogLevel, debug, cmd.ErrOrStderr())
		log.Debug().
			Str("path", path).
			Str("document", cfg.RAG.DocumentPath).
			Str("embed_provider", cfg.EmbedLLM.Provider).
			Str("chat_provider", cfg.InferenceLLM.Provider).
			Str("vector_store", cfg.VectorStore.Type).
			Msg("Loaded config")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

// Execute runs the root command. The first interrupt cancels in-flight requests, a second one kills the process.
func Execute() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("pdf-agent failed")
		os.Exit(1)
	}
}

// run executes the command tree under a context cancelled by the first SIGINT or SIGTERM
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $"+configEnv+" or "+defaultConfigPath+")")
	rootCmd.PersistentFlags().StringVarP(&filePath, "file", "f", "", "document to load (overrides rag.document_path)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(chatCmd, askCmd, chunksCmd)
}
