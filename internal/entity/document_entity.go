package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	// DocumentStatusPending means chunks are persisted but not yet embedded.
	DocumentStatusPending DocumentStatus = "pending"
	DocumentStatusIndexed DocumentStatus = "indexed"
	DocumentStatusFailed  DocumentStatus = "failed"
)

type Document struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	FileName   string
	FileType   string
	SizeBytes  int64
	Checksum   string
	Status     DocumentStatus
	ChunkCount int
	FailReason string
	Metadata   map[string]interface{}
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}

type DocumentChunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	ChunkIndex int
	Content    string
	CreatedAt  time.Time
}
