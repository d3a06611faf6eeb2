package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadDocumentResponse struct {
	Id         uuid.UUID `json:"id"`
	FileName   string    `json:"file_name"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
}

type DocumentResponse struct {
	Id         uuid.UUID  `json:"id"`
	FileName   string     `json:"file_name"`
	FileType   string     `json:"file_type"`
	SizeBytes  int64      `json:"size_bytes"`
	Status     string     `json:"status"`
	ChunkCount int        `json:"chunk_count"`
	FailReason string     `json:"fail_reason,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// PublishEmbedDocumentMessage is the payload pushed onto the embed queue
// after a document's chunks are persisted.
type PublishEmbedDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
