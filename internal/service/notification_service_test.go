package service

import (
	"testing"

	"rag-chatbot-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestBuildNotification(t *testing.T) {
	tests := []struct {
		name        string
		event       events.Event
		wantTitle   string
		wantHandled bool
	}{
		{
			name:        "indexed",
			event:       events.NewDocumentIndexed("user-1", "doc-1"),
			wantTitle:   "Document ready",
			wantHandled: true,
		},
		{
			name:        "failed with reason",
			event:       events.NewDocumentFailed("user-1", "doc-1", "embedding quota exceeded"),
			wantTitle:   "Document processing failed",
			wantHandled: true,
		},
		{
			name:        "deleted",
			event:       events.NewDocumentDeleted("user-1", "doc-1"),
			wantTitle:   "Document deleted",
			wantHandled: true,
		},
		{
			name:        "ingested has no user notification",
			event:       events.NewDocumentIngested("user-1", "doc-1", 7),
			wantHandled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notif, handled := buildNotification(tt.event)

			assert.Equal(t, tt.wantHandled, handled)
			if !tt.wantHandled {
				return
			}
			assert.Equal(t, tt.wantTitle, notif.Title)
			assert.Equal(t, tt.event.EventType(), notif.Type)
			assert.NotEmpty(t, notif.Message)
		})
	}
}

func TestBuildNotificationFailedIncludesReason(t *testing.T) {
	notif, handled := buildNotification(events.NewDocumentFailed("user-1", "doc-1", "corrupt PDF"))

	assert.True(t, handled)
	assert.Contains(t, notif.Message, "corrupt PDF")
}
