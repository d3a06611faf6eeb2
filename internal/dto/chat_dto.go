package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type SessionResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ChatHistoryResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

type SendChatRequest struct {
	// SessionId is optional; a new session is created when omitted.
	SessionId *uuid.UUID `json:"session_id"`
	Message   string     `json:"message" validate:"required"`
	Stream    bool       `json:"stream"`
}

type ChatMessageDTO struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SourceDTO struct {
	DocumentId uuid.UUID `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Score      float64   `json:"score"`
}

type SendChatResponse struct {
	SessionId    uuid.UUID       `json:"session_id"`
	SessionTitle string          `json:"title"`
	Sent         *ChatMessageDTO `json:"sent"`
	Reply        *ChatMessageDTO `json:"reply"`
	Sources      []SourceDTO     `json:"sources,omitempty"`
}

type RateMessageRequest struct {
	Id     uuid.UUID
	Rating int `json:"rating" validate:"oneof=-1 0 1"`
}
