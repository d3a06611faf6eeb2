package dto

import "time"

// NotificationDTO is the payload pushed over the notifications WebSocket.
type NotificationDTO struct {
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
