package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"pdf-agent/internal/config"
	"pdf-agent/internal/models"
)

type Document struct {
	bun.BaseModel  `bun:"table:document_chunks,alias:d"`
	ID             int64           `bun:"id,pk,autoincrement"`
	ChunkKey       string          `bun:"chunk_key,notnull"`
	Content        string          `bun:"content,notnull"`
	SourceFilename string          `bun:"source_filename"`
	PageNumber     int             `bun:"page_number"`
	ChunkID        int             `bun:"chunk_id"`
	Embedding      pgvector.Vector `bun:"embedding,notnull,type:vector"`
	Similarity     float32         `bun:"similarity,scanonly"`
}

// ConnectDB opens the database with pgdriver, or lib/pq when cfg.Driver is "pq"
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case "pq", "postgres":
		return sql.Open("postgres", cfg.DSN)
	case "pgdriver", "":
		opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
		if cfg.Password != "" {
			opts = append(opts, pgdriver.WithPassword(cfg.Password))
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// Store is a pgvector backed chunk index. The table is recreated on every run.
type Store struct {
	db    *bun.DB
	count int
}

// NewStore connects, enables the vector extension and recreates the chunk table
func NewStore(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	sqldb, err := ConnectDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	s := &Store{db: NewDB(sqldb, cfg.Debug)}

	if err := s.db.PingContext(ctx); err != nil {
		_ = s.db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := s.reset(ctx); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("enable pgvector: %w", err)
	}
	if _, err := s.db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("drop chunk table: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*Document)(nil)).Exec(ctx); err != nil {
		return fmt.Errorf("create chunk table: %w", err)
	}
	log.Debug().Msg("Recreated chunk table")
	return nil
}

// AddDocuments stores all chunks in a single batch insert
func (s *Store) AddDocuments(ctx context.Context, docs []models.ChunkEmbedding) error {
	if len(docs) == 0 {
		return nil
	}
	rows := make([]Document, len(docs))
	for i, d := range docs {
		rows[i] = Document{
			ChunkKey:       d.ID,
			Content:        d.Content,
			SourceFilename: d.Source,
			PageNumber:     d.PageNumber,
			ChunkID:        d.ChunkID,
			Embedding:      pgvector.NewVector(d.Embedding),
		}
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	s.count += len(rows)
	return nil
}

// Search orders by cosine distance, closest first
func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]models.SearchResult, error) {
	if k <= 0 || s.count == 0 {
		return nil, nil
	}
	vec := pgvector.NewVector(embedding)

	var rows []Document
	err := s.db.NewSelect().
		Model(&rows).
		Column("id", "chunk_key", "content", "source_filename", "page_number", "chunk_id").
		ColumnExpr("1 - (embedding <=> ?) AS similarity", vec).
		OrderExpr("embedding <=> ?", vec).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	results := make([]models.SearchResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, models.SearchResult{
			Chunk: models.Chunk{
				ID:         r.ChunkKey,
				Content:    r.Content,
				Source:     r.SourceFilename,
				PageNumber: r.PageNumber,
				ChunkID:    r.ChunkID,
			},
			Similarity: r.Similarity,
		})
	}
	return results, nil
}

func (s *Store) Count() int {
	return s.count
}

func (s *Store) Close() error {
	return s.db.Close()
}
