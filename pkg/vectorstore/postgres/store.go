package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"rag-chatbot-be/pkg/vectorstore"
)

// ChunkEmbedding is the pgvector-backed record row.
type ChunkEmbedding struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DocumentId uuid.UUID       `gorm:"type:uuid;not null;index"`
	ChunkIndex int             `gorm:"default:0"` // 0-based index for ordering
	Text       string          `gorm:"type:text"`
	Embedding  pgvector.Vector `gorm:"type:vector(1024)"` // mistral-embed uses 1024 dimensions
	Metadata   datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (ChunkEmbedding) TableName() string {
	return "chunk_embeddings"
}

// Store implements vectorstore.Store on Postgres with the pgvector extension.
// Cosine distance: embedding <=> query, similarity = 1 - distance.
type Store struct {
	db        *gorm.DB
	dimension int
}

var _ vectorstore.Store = &Store{}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension: %d", dimension)
	}
	s.dimension = dimension

	if err := s.db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("enable pgvector extension: %w", err)
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&ChunkEmbedding{}); err != nil {
		return fmt.Errorf("migrate chunk_embeddings: %w", err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	if s.dimension > 0 {
		if err := vectorstore.CheckDimension(records, s.dimension); err != nil {
			return err
		}
	}

	rows := make([]*ChunkEmbedding, 0, len(records))
	for _, r := range records {
		row, err := toRow(r)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return s.db.WithContext(ctx).Save(rows).Error
}

func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]vectorstore.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		ChunkEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	err := s.db.WithContext(ctx).
		Table("chunk_embeddings").
		Select("chunk_embeddings.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	out := make([]vectorstore.SearchResult, len(results))
	for i, res := range results {
		out[i] = vectorstore.SearchResult{
			Record: fromRow(&res.ChunkEmbedding),
			Score:  res.Similarity,
		}
	}
	return out, nil
}

func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	docId, err := uuid.Parse(documentID)
	if err != nil {
		return fmt.Errorf("invalid document id %q: %w", documentID, err)
	}
	return s.db.WithContext(ctx).Where("document_id = ?", docId).Delete(&ChunkEmbedding{}).Error
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func toRow(r vectorstore.Record) (*ChunkEmbedding, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid record id %q: %w", r.ID, err)
	}
	docId, err := uuid.Parse(r.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("invalid document id %q: %w", r.DocumentID, err)
	}

	row := &ChunkEmbedding{
		Id:         id,
		DocumentId: docId,
		ChunkIndex: r.ChunkIndex,
		Text:       r.Text,
		Embedding:  pgvector.NewVector(r.Vector),
	}
	if r.Metadata != nil {
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return nil, err
		}
		row.Metadata = datatypes.JSON(meta)
	}
	return row, nil
}

func fromRow(row *ChunkEmbedding) vectorstore.Record {
	rec := vectorstore.Record{
		ID:         row.Id.String(),
		DocumentID: row.DocumentId.String(),
		ChunkIndex: row.ChunkIndex,
		Text:       row.Text,
		Vector:     row.Embedding.Slice(),
	}
	if len(row.Metadata) > 0 {
		var meta map[string]interface{}
		if err := json.Unmarshal(row.Metadata, &meta); err == nil {
			rec.Metadata = meta
		}
	}
	return rec
}
