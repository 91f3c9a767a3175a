package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pdf-agent/internal/models"
)

var (
	ErrMissingCredential = errors.New("missing API credential")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	StoreMemory   = "memory"
	StorePgvector = "pgvector"

	SplitterRecursive = "recursive"
	SplitterWindow    = "window"

	defaultAPIKeyEnv      = "GOOGLE_API_KEY"
	defaultEmbeddingModel = "gemini-embedding-001"
	defaultInferenceModel = "gemini-2.5-flash"
	defaultTemperature    = 0.3
	defaultDocumentPath   = "seu_documento.pdf"
	defaultChunkSize      = 1000
	defaultChunkOverlap   = 200
	defaultTopK           = 5
	defaultBatchSize      = 100
	defaultCollection     = "documents"
	defaultLocale         = "pt"
)

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	// Key is resolved from APIKeyEnv and never read from or written to yaml
	Key string `yaml:"-"`
}

type RAGConfig struct {
	DocumentPath  string `yaml:"document_path"`
	Splitter      string `yaml:"splitter"`
	ChunkSize     int    `yaml:"chunk_size"`
	ChunkOverlap  int    `yaml:"chunk_overlap"`
	TopK          int    `yaml:"top_k"`
	BatchSize     int    `yaml:"batch_size"`
	EncryptionKey string `yaml:"encryption_key"`
}

type VectorStoreConfig struct {
	Type           string `yaml:"type"`
	CollectionName string `yaml:"collection_name"`
	ExportPath     string `yaml:"export_path"`
	Compress       bool   `yaml:"compress"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type ChatConfig struct {
	Locale      string `yaml:"locale"`
	ExitKeyword string `yaml:"exit_keyword"`
	ShowSources bool   `yaml:"show_sources"`
}

type Config struct {
	EmbedLLM     LLMConfig         `yaml:"embed_llm"`
	InferenceLLM LLMConfig         `yaml:"inference_llm"`
	RAG          RAGConfig         `yaml:"rag"`
	VectorStore  VectorStoreConfig `yaml:"vector_store"`
	Database     DatabaseConfig    `yaml:"database"`
	Chat         ChatConfig        `yaml:"chat"`
	LogLevel     string            `yaml:"log_level"`
}

// Default returns a config matching the stock agent: gemini models, 1000/200 chunks and top 5 retrieval.
func Default() *Config {
	return &Config{
		EmbedLLM: LLMConfig{
			Provider:  ProviderGemini,
			Model:     defaultEmbeddingModel,
			APIKeyEnv: defaultAPIKeyEnv,
		},
		InferenceLLM: LLMConfig{
			Provider:    ProviderGemini,
			Model:       defaultInferenceModel,
			APIKeyEnv:   defaultAPIKeyEnv,
			Temperature: defaultTemperature,
		},
		RAG: RAGConfig{
			DocumentPath: defaultDocumentPath,
			Splitter:     SplitterRecursive,
			ChunkSize:    defaultChunkSize,
			ChunkOverlap: defaultChunkOverlap,
			TopK:         defaultTopK,
			BatchSize:    defaultBatchSize,
		},
		VectorStore: VectorStoreConfig{
			Type:           StoreMemory,
			CollectionName: defaultCollection,
		},
		Database: DatabaseConfig{
			Driver: "pgdriver",
		},
		Chat:     ChatConfig{Locale: defaultLocale},
		LogLevel: "info",
	}
}

// LoadConfig reads the yaml file at path on top of the defaults. A missing file is not an error.
// Credentials are resolved from the environment, after loading an optional .env file.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	_ = godotenv.Load()

	applyDefaults(cfg)
	cfg.EmbedLLM.Key = strings.TrimSpace(os.Getenv(cfg.EmbedLLM.APIKeyEnv))
	cfg.InferenceLLM.Key = strings.TrimSpace(os.Getenv(cfg.InferenceLLM.APIKeyEnv))
	return cfg, nil
}

// fill zero values left behind by a partial yaml file
func applyDefaults(cfg *Config) {
	def := Default()
	for _, pair := range []struct{ c, d *LLMConfig }{
		{&cfg.EmbedLLM, &def.EmbedLLM},
		{&cfg.InferenceLLM, &def.InferenceLLM},
	} {
		if pair.c.Provider == "" {
			pair.c.Provider = pair.d.Provider
		}
		if pair.c.APIKeyEnv == "" {
			pair.c.APIKeyEnv = pair.d.APIKeyEnv
		}
		if pair.c.Model == "" && pair.c.Provider == pair.d.Provider {
			pair.c.Model = pair.d.Model
		}
	}
	if cfg.RAG.DocumentPath == "" {
		cfg.RAG.DocumentPath = def.RAG.DocumentPath
	}
	if cfg.RAG.Splitter == "" {
		cfg.RAG.Splitter = def.RAG.Splitter
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = def.RAG.ChunkSize
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = def.RAG.TopK
	}
	if cfg.RAG.BatchSize == 0 {
		cfg.RAG.BatchSize = def.RAG.BatchSize
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = def.VectorStore.Type
	}
	if cfg.VectorStore.CollectionName == "" {
		cfg.VectorStore.CollectionName = def.VectorStore.CollectionName
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = def.Database.Driver
	}
	if cfg.Chat.Locale == "" {
		cfg.Chat.Locale = def.Chat.Locale
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
}

// Validate checks everything that must hold before any document is loaded.
func (c *Config) Validate() error {
	if err := c.ValidateRAG(); err != nil {
		return err
	}
	for _, llm := range []*LLMConfig{&c.EmbedLLM, &c.InferenceLLM} {
		if err := llm.validate(); err != nil {
			return err
		}
	}
	switch c.VectorStore.Type {
	case StoreMemory:
	case StorePgvector:
		if c.Database.DSN == "" {
			return fmt.Errorf("%w: database.dsn is required for the pgvector store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown vector store %q", ErrInvalidConfig, c.VectorStore.Type)
	}
	return nil
}

// ValidateRAG only checks the chunking and retrieval settings; it needs no credential.
func (c *Config) ValidateRAG() error {
	r := c.RAG
	if r.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfig, r.ChunkSize)
	}
	if r.ChunkOverlap < 0 || r.ChunkOverlap >= r.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, %d), got %d", ErrInvalidConfig, r.ChunkSize, r.ChunkOverlap)
	}
	if r.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidConfig, r.TopK)
	}
	switch r.Splitter {
	case SplitterRecursive, SplitterWindow:
	default:
		return fmt.Errorf("%w: unknown splitter %q", ErrInvalidConfig, r.Splitter)
	}
	return nil
}

func (l *LLMConfig) validate() error {
	switch l.Provider {
	case ProviderOllama:
		return nil
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, l.Provider)
	}
	if l.Key == "" || l.Key == models.APIKeyPlaceholder {
		return fmt.Errorf("%w: set %s to a valid %s API key", ErrMissingCredential, l.APIKeyEnv, l.Provider)
	}
	if l.Model == "" {
		return fmt.Errorf("%w: model is required for provider %s", ErrInvalidConfig, l.Provider)
	}
	return nil
}
