package models

// Page is one page worth of extracted document text
type Page struct {
	Source string `json:"source"`
	Number int    `json:"page_number"`
	Text   string `json:"-"`
}

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Source     string `json:"source"`
	PageNumber int    `json:"page_number"`
	ChunkID    int    `json:"chunk_id"`
}

// ChunkEmbedding pairs a chunk with its vector
type ChunkEmbedding struct {
	Chunk
	Embedding []float32
}

// SearchResult is a single retrieval hit, ordered by descending similarity
type SearchResult struct {
	Chunk
	Similarity float32
}

type PromptResponse struct {
	Query   string
	Source  string
	Content string
}
