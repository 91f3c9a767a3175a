package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"pdf-agent/internal/chromemdb"
	"pdf-agent/internal/config"
	"pdf-agent/internal/db"
	"pdf-agent/internal/embedding"
	"pdf-agent/internal/helper"
	"pdf-agent/internal/llmservice"
	"pdf-agent/internal/models"
	"pdf-agent/internal/parser"
	"pdf-agent/internal/rag"
)

// messages returns the locale strings with the configured exit keyword applied
func messages(cfg *config.Config) models.Messages {
	msgs := models.MessagesFor(cfg.Chat.Locale)
	if cfg.Chat.ExitKeyword != "" {
		msgs.ExitKeyword = cfg.Chat.ExitKeyword
	}
	return msgs
}

// loadChunks reads and splits the configured document
func loadChunks(cfg *config.Config) ([]models.Chunk, error) {
	log.Info().Msgf("Carregando o documento '%s'...", cfg.RAG.DocumentPath)
	pages, err := parser.LoadPages(cfg.RAG.DocumentPath)
	if err != nil {
		return nil, err
	}

	splitter, err := parser.NewSplitter(cfg.RAG)
	if err != nil {
		return nil, err
	}

	log.Info().Int("pages", len(pages)).Msg("Dividindo o documento em pedaços (chunks)...")
	chunks, err := parser.SplitPages(pages, splitter)
	if err != nil {
		return nil, fmt.Errorf("split document: %w", err)
	}
	log.Info().Int("chunks", len(chunks)).Msg("Document split")
	return chunks, nil
}

func newVectorStore(ctx context.Context, cfg *config.Config) (rag.VectorStore, func(), error) {
	switch cfg.VectorStore.Type {
	case config.StorePgvector:
		store, err := db.NewStore(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		store, err := chromemdb.NewVectorDBManager(cfg.VectorStore.CollectionName, cfg.VectorStore.Compress, cfg.RAG.EncryptionKey)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating vector database manager: %w", err)
		}
		return store, func() {}, nil
	}
}

// buildAgent performs the whole startup sequence: validate, ingest, index and wire the chat model.
// The returned cleanup must be called once the agent is no longer used.
func buildAgent(ctx context.Context, cfg *config.Config, progress io.Writer) (*rag.RAG, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	chunks, err := loadChunks(cfg)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := embedding.NewEmbedder(ctx, &cfg.EmbedLLM, cfg.RAG.BatchSize)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing embedder: %w", err)
	}

	store, cleanup, err := newVectorStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Msg("Criando embeddings e armazenando no banco de dados vetorial...")
	bar := embedding.NewProgressBar(len(chunks), progress)
	if err := rag.BuildIndex(ctx, store, embedder, chunks, cfg.RAG.BatchSize, bar); err != nil {
		cleanup()
		return nil, nil, err
	}

	if mem, ok := store.(*chromemdb.VectorDBManager); ok && cfg.VectorStore.ExportPath != "" {
		if err := helper.CreateFolder(cfg.VectorStore.ExportPath); err != nil {
			log.Warn().Err(err).Msg("Error creating export folder")
		} else if err := mem.Export(cfg.VectorStore.ExportPath); err != nil {
			log.Warn().Err(err).Msg("Error exporting collection")
		}
	}

	generator, err := llmservice.NewGenerator(ctx, &cfg.InferenceLLM)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("error initializing chat model: %w", err)
	}

	msgs := messages(cfg)
	agent := rag.NewRAG(
		rag.NewRetriever(store, embedder),
		rag.NewAnswerGenerator(msgs.Template, generator),
		cfg.RAG.TopK,
	)
	return agent, cleanup, nil
}
