package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/genai"

	"pdf-agent/internal/config"
)

// Generator turns a fully rendered prompt into the model's answer
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewGenerator returns the chat client for llmConfig.Provider
func NewGenerator(ctx context.Context, llmConfig *config.LLMConfig) (Generator, error) {
	log.Debug().
		Str("provider", llmConfig.Provider).
		Str("model", llmConfig.Model).
		Float64("temperature", llmConfig.Temperature).
		Msg("Creating chat client")

	switch llmConfig.Provider {
	case config.ProviderGemini:
		client, err := NewGenAIClient(ctx, llmConfig)
		if err != nil {
			return nil, err
		}
		return &geminiGenerator{client: client, model: llmConfig.Model, temperature: float32(llmConfig.Temperature)}, nil
	case config.ProviderOpenAI, config.ProviderOllama:
		llm, err := NewLangchainLLM(llmConfig, false)
		if err != nil {
			return nil, err
		}
		return &langchainGenerator{llm: llm, temperature: llmConfig.Temperature}, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", llmConfig.Provider)
	}
}

// NewGenAIClient creates a Gemini API client; BaseURL is only set when overridden
func NewGenAIClient(ctx context.Context, llmConfig *config.LLMConfig) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  llmConfig.Key,
		Backend: genai.BackendGeminiAPI,
	}
	if llmConfig.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: llmConfig.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// LangchainClient is satisfied by both *openai.LLM and *ollama.LLM
type LangchainClient interface {
	llms.Model
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewLangchainLLM creates an openai compatible or ollama client. With embedding set the model is
// used for embeddings instead of chat completions.
func NewLangchainLLM(llmConfig *config.LLMConfig, embedding bool) (LangchainClient, error) {
	switch llmConfig.Provider {
	case config.ProviderOpenAI:
		opts := []openai.Option{openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer "))}
		if llmConfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
		}
		if embedding {
			opts = append(opts, openai.WithEmbeddingModel(llmConfig.Model))
		} else {
			opts = append(opts, openai.WithModel(llmConfig.Model))
		}
		return openai.New(opts...)
	case config.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
		if llmConfig.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
		}
		return ollama.New(opts...)
	default:
		return nil, fmt.Errorf("provider %s is not served by langchaingo", llmConfig.Provider)
	}
}

type langchainGenerator struct {
	llm         llms.Model
	temperature float64
}

func (g *langchainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, llms.WithTemperature(g.temperature))
}

type geminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{Temperature: genai.Ptr(g.temperature)},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(result.Candidates) == 0 {
		if fb := result.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return "", fmt.Errorf("gemini blocked the prompt: %s", fb.BlockReason)
		}
		return "", fmt.Errorf("gemini returned no candidates")
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty answer (finish reason %s)", result.Candidates[0].FinishReason)
	}
	return text, nil
}
