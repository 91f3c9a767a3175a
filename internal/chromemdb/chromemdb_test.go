package chromemdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pdf-agent/internal/models"
)

func newTestManager(t *testing.T, key string) *VectorDBManager {
	t.Helper()
	m, err := NewVectorDBManager("test", false, key)
	if err != nil {
		t.Fatalf("NewVectorDBManager: %v", err)
	}
	return m
}

func seed(t *testing.T, m *VectorDBManager) {
	t.Helper()
	docs := []models.ChunkEmbedding{
		{Chunk: models.Chunk{ID: "1-1", Content: "east", Source: "doc.pdf", PageNumber: 1, ChunkID: 1}, Embedding: []float32{1, 0, 0}},
		{Chunk: models.Chunk{ID: "1-2", Content: "north-east", Source: "doc.pdf", PageNumber: 1, ChunkID: 2}, Embedding: []float32{1, 1, 0}},
		{Chunk: models.Chunk{ID: "2-1", Content: "up", Source: "doc.pdf", PageNumber: 2, ChunkID: 1}, Embedding: []float32{0, 0, 1}},
	}
	if err := m.AddDocuments(context.Background(), docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
}

func TestSearchOrdersBySimilarity(t *testing.T) {
	m := newTestManager(t, "")
	seed(t, m)

	results, err := m.Search(context.Background(), []float32{1, 0.1, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "1-1" || results[1].ID != "1-2" {
		t.Errorf("order = %s, %s", results[0].ID, results[1].ID)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Errorf("similarities not descending: %v", results)
	}
	if results[0].PageNumber != 1 || results[0].ChunkID != 1 || results[0].Source != "doc.pdf" {
		t.Errorf("metadata not restored: %+v", results[0].Chunk)
	}
}

func TestSearchClampsK(t *testing.T) {
	m := newTestManager(t, "")
	seed(t, m)

	results, err := m.Search(context.Background(), []float32{0, 0, 1}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}
	if results[0].ID != "2-1" {
		t.Errorf("best match = %s, want 2-1", results[0].ID)
	}
}

func TestSearchEmptyCollection(t *testing.T) {
	m := newTestManager(t, "")
	results, err := m.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from an empty collection", len(results))
	}
	if _, err := m.Search(context.Background(), nil, 5); err == nil {
		t.Error("expected error for missing embedding")
	}
}

func TestExport(t *testing.T) {
	m := newTestManager(t, "")
	seed(t, m)

	path := filepath.Join(t.TempDir(), "snapshot.gob")
	if err := m.Export(path); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("snapshot not written: %v", err)
	}

	bad := newTestManager(t, "too-short")
	if err := bad.Export(path); err == nil {
		t.Error("expected error for short encryption key")
	}
	if err := m.Export(""); err == nil {
		t.Error("expected error for empty path")
	}
}
