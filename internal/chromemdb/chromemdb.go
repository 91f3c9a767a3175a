package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"pdf-agent/internal/models"
)

// meta data will have source filename, page number, chunk id
const (
	metaSource  = "source"
	metaPage    = "page_number"
	metaChunkID = "chunk_id"
)

var errPrecomputedOnly = errors.New("collection only accepts precomputed embeddings")

// VectorDBManager encapsulates the in-memory chromem-go collection holding the document chunks
type VectorDBManager struct {
	db            *chromem.DB
	collection    *chromem.Collection
	compress      bool
	encryptionKey string
}

// NewVectorDBManager initializes an in-memory database with a single collection
func NewVectorDBManager(collectionName string, compress bool, encryptionKey string) (*VectorDBManager, error) {
	db := chromem.NewDB()

	// embeddings are always computed by the caller, so the collection must never embed on its own
	noEmbed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, errPrecomputedOnly
	}
	c, err := db.GetOrCreateCollection(collectionName, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}

	return &VectorDBManager{
		db:            db,
		collection:    c,
		compress:      compress,
		encryptionKey: encryptionKey,
	}, nil
}

// AddDocuments stores the chunks with their vectors
func (m *VectorDBManager) AddDocuments(ctx context.Context, docs []models.ChunkEmbedding) error {
	if len(docs) == 0 {
		return nil
	}
	chromemDocs := make([]chromem.Document, 0, len(docs))
	for _, d := range docs {
		chromemDocs = append(chromemDocs, chromem.Document{
			ID:        d.ID,
			Content:   d.Content,
			Metadata:  createMetadata(d.Chunk),
			Embedding: d.Embedding,
		})
	}

	if err := m.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Search returns up to k chunks ordered by descending cosine similarity. k is clamped to the collection size.
func (m *VectorDBManager) Search(ctx context.Context, embedding []float32, k int) ([]models.SearchResult, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}
	n := min(k, m.collection.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := m.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, models.SearchResult{
			Chunk:      chunkFromResult(r),
			Similarity: r.Similarity,
		})
	}
	return out, nil
}

func (m *VectorDBManager) Count() int {
	return m.collection.Count()
}

// Export writes a snapshot of the collection to filePath, encrypted when an encryption key is set.
// The key must be 32 bytes long.
func (m *VectorDBManager) Export(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("export path is required")
	}
	if m.encryptionKey != "" && len(m.encryptionKey) != 32 {
		return fmt.Errorf("encryption key must be 32 bytes, got %d", len(m.encryptionKey))
	}

	log.Debug().
		Str("collection", m.collection.Name).
		Str("file", filePath).
		Bool("compress", m.compress).
		Bool("encrypted", m.encryptionKey != "").
		Msg("Exporting collection")

	if err := m.db.ExportToFile(filepath.Clean(filePath), m.compress, m.encryptionKey, m.collection.Name); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

func createMetadata(c models.Chunk) map[string]string {
	return map[string]string{
		metaSource:  c.Source,
		metaPage:    strconv.Itoa(c.PageNumber),
		metaChunkID: strconv.Itoa(c.ChunkID),
	}
}

func chunkFromResult(r chromem.Result) models.Chunk {
	page, _ := strconv.Atoi(r.Metadata[metaPage])
	chunkID, _ := strconv.Atoi(r.Metadata[metaChunkID])
	return models.Chunk{
		ID:         r.ID,
		Content:    r.Content,
		Source:     r.Metadata[metaSource],
		PageNumber: page,
		ChunkID:    chunkID,
	}
}
