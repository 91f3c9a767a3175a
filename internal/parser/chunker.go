package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tmc/langchaingo/textsplitter"

	"pdf-agent/internal/config"
	"pdf-agent/internal/models"
)

// Splitter cuts a page of text into bounded chunks
type Splitter interface {
	Split(text string) ([]string, error)
}

// NewSplitter builds the splitter selected by cfg.Splitter
func NewSplitter(cfg config.RAGConfig) (Splitter, error) {
	switch cfg.Splitter {
	case config.SplitterRecursive, "":
		return &recursiveSplitter{
			inner: textsplitter.NewRecursiveCharacter(
				textsplitter.WithChunkSize(cfg.ChunkSize),
				textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
			),
		}, nil
	case config.SplitterWindow:
		return &WindowSplitter{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap}, nil
	default:
		return nil, fmt.Errorf("unknown splitter: %s", cfg.Splitter)
	}
}

type recursiveSplitter struct {
	inner textsplitter.RecursiveCharacter
}

func (s *recursiveSplitter) Split(text string) ([]string, error) {
	return s.inner.SplitText(text)
}

// WindowSplitter produces fixed size rune windows. The overlap of two
// neighbours is always a suffix of the first and a prefix of the second.
type WindowSplitter struct {
	Size    int
	Overlap int
}

func (w *WindowSplitter) Split(text string) ([]string, error) {
	size, overlap := w.Size, w.Overlap
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}

	runes := []rune(text)
	n := len(runes)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if n <= size {
		return []string{text}, nil
	}

	var chunks []string
	start := 0
	for start < n {
		end := min(start+size, n)

		// look for a break in the last 10% of the window
		if end < n {
			lookBack := size / 10
			for i := end - 1; i >= end-lookBack && i > start+overlap; i-- {
				if unicode.IsSpace(runes[i]) || runes[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		chunk := string(runes[start:end])
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		if end >= n {
			break
		}
		start = end - overlap
	}
	return chunks, nil
}

// SplitPages chunks every page in document order. Chunk ids restart at 1 on each page.
func SplitPages(pages []models.Page, splitter Splitter) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		parts, err := splitter.Split(page.Text)
		if err != nil {
			return nil, fmt.Errorf("split page %d: %w", page.Number, err)
		}
		chunkID := 0
		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			chunkID++
			chunks = append(chunks, models.Chunk{
				ID:         fmt.Sprintf("%d-%d", page.Number, chunkID),
				Content:    part,
				Source:     page.Source,
				PageNumber: page.Number,
				ChunkID:    chunkID,
			})
		}
	}
	return chunks, nil
}
