package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"google.golang.org/genai"
)

const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"

	// EmbedContent accepts at most this many contents per request
	geminiMaxBatch = 100
)

type geminiEmbedder struct {
	client    *genai.Client
	model     string
	batchSize int
}

var _ embeddings.Embedder = (*geminiEmbedder)(nil)

func (g *geminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	batchSize := g.batchSize
	if batchSize <= 0 || batchSize > geminiMaxBatch {
		batchSize = geminiMaxBatch
	}

	vectors := make([][]float32, 0, len(texts))
	for _, batch := range embeddings.BatchTexts(texts, batchSize) {
		res, err := g.embed(ctx, batch, taskRetrievalDocument)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, res...)
	}
	return vectors, nil
}

func (g *geminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	res, err := g.embed(ctx, []string{text}, taskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

func (g *geminiEmbedder) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: text}}})
	}

	result, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{TaskType: taskType})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, e := range result.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}
