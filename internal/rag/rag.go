package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/prompts"

	"pdf-agent/internal/embedding"
	"pdf-agent/internal/llmservice"
	"pdf-agent/internal/models"
)

// VectorStore is an index of embedded chunks. It is written once by BuildIndex and only read afterwards.
type VectorStore interface {
	AddDocuments(ctx context.Context, docs []models.ChunkEmbedding) error
	Search(ctx context.Context, embedding []float32, k int) ([]models.SearchResult, error)
	Count() int
}

// QueryError wraps any failure while answering a single question
type QueryError struct {
	Question string
	Stage    string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s failed for %q: %v", e.Stage, e.Question, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// BuildIndex embeds every chunk and stores the result. Nothing is stored when embedding fails.
func BuildIndex(ctx context.Context, store VectorStore, embedder embeddings.Embedder, chunks []models.Chunk, batchSize int, bar *progressbar.ProgressBar) error {
	chunkEmbeddings, err := embedding.GenerateEmbeddings(ctx, embedder, chunks, batchSize, bar)
	if err != nil {
		return fmt.Errorf("generate embeddings: %w", err)
	}

	log.Info().Msgf("Adding %d documents to vector database", len(chunkEmbeddings))
	if err := store.AddDocuments(ctx, chunkEmbeddings); err != nil {
		return fmt.Errorf("store embeddings: %w", err)
	}
	return nil
}

type Retriever struct {
	store    VectorStore
	embedder embeddings.Embedder
}

func NewRetriever(store VectorStore, embedder embeddings.Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Search embeds the query and returns at most k chunks, most similar first
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if r.store.Count() == 0 {
		return nil, nil
	}

	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.store.Search(ctx, queryEmbedding, k)
	if err != nil {
		return nil, err
	}
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// AnswerGenerator renders the question and retrieved context into the prompt and asks the chat model
type AnswerGenerator struct {
	template  prompts.PromptTemplate
	generator llmservice.Generator
}

func NewAnswerGenerator(template string, generator llmservice.Generator) *AnswerGenerator {
	return &AnswerGenerator{
		template:  prompts.NewPromptTemplate(template, []string{"context", "question"}),
		generator: generator,
	}
}

// Render fills the template; the context is the chunk contents in retrieval order
func (a *AnswerGenerator) Render(question string, results []models.SearchResult) (string, error) {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Content)
	}
	return a.template.Format(map[string]any{
		"context":  strings.Join(parts, models.ContextSeparator),
		"question": question,
	})
}

func (a *AnswerGenerator) Generate(ctx context.Context, question string, results []models.SearchResult) (string, error) {
	prompt, err := a.Render(question, results)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	log.Debug().Int("prompt_len", len(prompt)).Msg("Sending prompt")
	return a.generator.Generate(ctx, prompt)
}

type RAG struct {
	retriever *Retriever
	answerer  *AnswerGenerator
	topK      int
}

func NewRAG(retriever *Retriever, answerer *AnswerGenerator, topK int) *RAG {
	return &RAG{retriever: retriever, answerer: answerer, topK: topK}
}

// Query answers a single question. Every failure comes back as a *QueryError.
func (r *RAG) Query(ctx context.Context, query string) (*models.PromptResponse, error) {
	results, err := r.retriever.Search(ctx, query, r.topK)
	if err != nil {
		return nil, &QueryError{Question: query, Stage: "retrieval", Err: err}
	}
	log.Debug().Int("matches", len(results)).Msg("Retrieved context")

	answer, err := r.answerer.Generate(ctx, query, results)
	if err != nil {
		return nil, &QueryError{Question: query, Stage: "generation", Err: err}
	}

	return &models.PromptResponse{
		Query:   query,
		Source:  summarizeSources(results),
		Content: answer,
	}, nil
}

// summarizeSources lists the distinct pages the context came from, e.g. "doc.pdf p. 2, 5"
func summarizeSources(results []models.SearchResult) string {
	pagesBySource := map[string][]int{}
	var sources []string
	for _, r := range results {
		if _, ok := pagesBySource[r.Source]; !ok {
			sources = append(sources, r.Source)
		}
		pages := pagesBySource[r.Source]
		seen := false
		for _, p := range pages {
			if p == r.PageNumber {
				seen = true
				break
			}
		}
		if !seen {
			pagesBySource[r.Source] = append(pages, r.PageNumber)
		}
	}

	var out []string
	for _, src := range sources {
		pages := pagesBySource[src]
		sort.Ints(pages)
		nums := make([]string, len(pages))
		for i, p := range pages {
			nums[i] = fmt.Sprint(p)
		}
		out = append(out, fmt.Sprintf("%s p. %s", src, strings.Join(nums, ", ")))
	}
	return strings.Join(out, "; ")
}
