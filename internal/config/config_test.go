package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "abc123")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RAG.ChunkSize != 1000 || cfg.RAG.ChunkOverlap != 200 {
		t.Errorf("chunking = %d/%d, want 1000/200", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.RAG.TopK)
	}
	if cfg.InferenceLLM.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", cfg.InferenceLLM.Temperature)
	}
	if cfg.EmbedLLM.Key != "abc123" || cfg.InferenceLLM.Key != "abc123" {
		t.Errorf("keys not resolved from env: %q %q", cfg.EmbedLLM.Key, cfg.InferenceLLM.Key)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfigYAMLOverrides(t *testing.T) {
	t.Setenv("OPENROUTER_KEY", "sk-test")
	path := writeConfig(t, `
embed_llm:
  provider: openai
  base_url: https://openrouter.ai/api/v1
  model: text-embedding-3-small
  api_key_env: OPENROUTER_KEY
inference_llm:
  provider: ollama
  model: llama3
rag:
  splitter: window
  chunk_size: 500
  chunk_overlap: 50
  top_k: 3
chat:
  locale: en
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.EmbedLLM.Provider != ProviderOpenAI || cfg.EmbedLLM.Key != "sk-test" {
		t.Errorf("embed llm = %+v", cfg.EmbedLLM)
	}
	if cfg.InferenceLLM.Temperature != 0.3 {
		t.Errorf("temperature default lost: %v", cfg.InferenceLLM.Temperature)
	}
	if cfg.RAG.ChunkSize != 500 || cfg.RAG.ChunkOverlap != 50 || cfg.RAG.TopK != 3 {
		t.Errorf("rag = %+v", cfg.RAG)
	}
	if cfg.RAG.DocumentPath != "seu_documento.pdf" {
		t.Errorf("DocumentPath = %q", cfg.RAG.DocumentPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeConfig(t, "rag: [unclosed")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateCredential(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want error
	}{
		{"missing", "", ErrMissingCredential},
		{"placeholder", "SUA_CHAVE_API_AQUI", ErrMissingCredential},
		{"valid", "real-key", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GOOGLE_API_KEY", tt.key)
			cfg, err := LoadConfig("")
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			err = cfg.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateOllamaNeedsNoKey(t *testing.T) {
	cfg := Default()
	cfg.EmbedLLM.Provider = ProviderOllama
	cfg.InferenceLLM.Provider = ProviderOllama
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRAG(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RAGConfig)
	}{
		{"zero size", func(r *RAGConfig) { r.ChunkSize = 0 }},
		{"negative overlap", func(r *RAGConfig) { r.ChunkOverlap = -1 }},
		{"overlap too large", func(r *RAGConfig) { r.ChunkOverlap = r.ChunkSize }},
		{"zero k", func(r *RAGConfig) { r.TopK = 0 }},
		{"unknown splitter", func(r *RAGConfig) { r.Splitter = "semantic" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg.RAG)
			if err := cfg.ValidateRAG(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("ValidateRAG() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestValidatePgvectorNeedsDSN(t *testing.T) {
	cfg := Default()
	cfg.EmbedLLM.Key = "k"
	cfg.InferenceLLM.Key = "k"
	cfg.VectorStore.Type = StorePgvector
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
	}
	cfg.Database.DSN = "postgres://localhost:5432/rag"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}
