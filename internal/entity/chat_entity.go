package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser = "user"
	// RoleModel is mapped to "assistant" at the provider boundary.
	RoleModel = "model"
)

type ChatSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Content       string
	// Rating is -1 (thumbs down), 0 (unrated) or 1 (thumbs up).
	Rating    int
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
