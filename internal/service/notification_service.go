package service

import (
	"context"
	"fmt"
	"time"

	"rag-chatbot-be/internal/dto"
	"rag-chatbot-be/internal/pkg/logger"
	"rag-chatbot-be/pkg/events"
	pktNats "rag-chatbot-be/pkg/nats"

	"github.com/google/uuid"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification dto.NotificationDTO)
	Broadcast(notification dto.NotificationDTO)
}

type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	s.logger.Info("NotificationService", fmt.Sprintf("Processing event: %s", event.EventType()), map[string]interface{}{"type": event.EventType()})

	notif, ok := buildNotification(event)
	if !ok {
		// Event type has no user-facing notification.
		return nil
	}

	payload := event.Payload()
	uidStr, ok := payload["user_id"].(string)
	if !ok {
		s.logger.Warn("NotificationService", "Event missing user_id, skipping delivery", map[string]interface{}{"type": event.EventType()})
		return nil
	}
	uid, err := uuid.Parse(uidStr)
	if err != nil {
		s.logger.Warn("NotificationService", "Invalid user_id in event payload", map[string]interface{}{"user_id": uidStr})
		return nil
	}

	if s.delivery != nil {
		s.delivery.Send(uid, notif)
	}
	return nil
}

func buildNotification(event events.Event) (dto.NotificationDTO, bool) {
	payload := event.Payload()

	var title, message string
	switch event.EventType() {
	case events.TypeDocumentIndexed:
		title = "Document ready"
		message = "Your document has been indexed and is now searchable."
	case events.TypeDocumentFailed:
		title = "Document processing failed"
		reason, _ := payload["reason"].(string)
		message = "Your document could not be indexed."
		if reason != "" {
			message = fmt.Sprintf("Your document could not be indexed: %s", reason)
		}
	case events.TypeDocumentDeleted:
		title = "Document deleted"
		message = "The document and its index entries were removed."
	default:
		return dto.NotificationDTO{}, false
	}

	return dto.NotificationDTO{
		Type:      event.EventType(),
		Title:     title,
		Message:   message,
		Data:      payload,
		CreatedAt: time.Now(),
	}, true
}
