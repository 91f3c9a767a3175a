package embedding

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/tmc/langchaingo/embeddings"

	"pdf-agent/internal/config"
	"pdf-agent/internal/llmservice"
	"pdf-agent/internal/models"
)

// NewEmbedder creates the embedder for llmConfig.Provider. Documents are sent batchSize texts per request.
func NewEmbedder(ctx context.Context, llmConfig *config.LLMConfig, batchSize int) (embeddings.Embedder, error) {
	log.Debug().Interface("config", map[string]string{
		"provider":        llmConfig.Provider,
		"base_url":        llmConfig.BaseURL,
		"embedding_model": llmConfig.Model,
	}).Msg("Creating embedder")

	if llmConfig.Provider == config.ProviderGemini {
		client, err := llmservice.NewGenAIClient(ctx, llmConfig)
		if err != nil {
			return nil, err
		}
		return &geminiEmbedder{client: client, model: llmConfig.Model, batchSize: batchSize}, nil
	}

	llm, err := llmservice.NewLangchainLLM(llmConfig, true)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithBatchSize(batchSize))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return embedder, nil
}

// NewProgressBar renders embedding progress to out
func NewProgressBar(total int, out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)
}

// GenerateEmbeddings embeds every chunk exactly once, preserving order. Any error aborts the whole run,
// so callers never see a partial result. bar may be nil.
func GenerateEmbeddings(ctx context.Context, embedder embeddings.Embedder, chunks []models.Chunk, batchSize int, bar *progressbar.ProgressBar) ([]models.ChunkEmbedding, error) {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks generated from content")
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = len(chunks)
	}

	chunkEmbeddings := make([]models.ChunkEmbedding, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}

		vectors, err := embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start+1, end, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embedding service returned %d vectors for %d chunks", len(vectors), len(batch))
		}

		for i, chunk := range batch {
			if len(vectors[i]) == 0 {
				return nil, fmt.Errorf("empty embedding for chunk %s", chunk.ID)
			}
			chunkEmbeddings = append(chunkEmbeddings, models.ChunkEmbedding{Chunk: chunk, Embedding: vectors[i]})
		}
		if bar != nil {
			_ = bar.Add(len(batch))
		}
		log.Debug().Int("done", end).Int("total", len(chunks)).Msg("Embedded batch")
	}

	return chunkEmbeddings, nil
}
