package cli

import (
	"github.com/spf13/cobra"

	"pdf-agent/internal/helper"
)

var chunksCmd = &cobra.Command{
	Use:   "chunks",
	Short: "Dry run: load and split the document, then print the chunks as json",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateRAG(); err != nil {
			return err
		}
		chunks, err := loadChunks(cfg)
		if err != nil {
			return err
		}
		helper.PrettyPrint(cmd.OutOrStdout(), chunks)
		return nil
	},
}
