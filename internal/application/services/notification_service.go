package services

import (
	"github.com/GatherLoop/gathersync/internal/domain/entities/messages"
	"github.com/GatherLoop/gathersync/internal/domain/entities/push"
	"github.com/GatherLoop/gathersync/internal/infrastructure/messaging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
)

// notificationTag is fixed so repeat notifications replace rather than
// stack on the client.
const notificationTag = "gatherloop-event"

// NotificationService turns push payloads into rendered notifications and
// fans them out to connected clients. Loosely coupled to the rest of the
// gateway through the same websocket channel.
type NotificationService struct {
	broadcaster *messaging.Broadcaster
	logger      *logging.ChanneledLogger
}

// NewNotificationService creates the push presenter.
func NewNotificationService(broadcaster *messaging.Broadcaster, logger *logging.ChanneledLogger) *NotificationService {
	return &NotificationService{
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// BuildNotification renders a canonical payload into a notification. iOS
// clients get requireInteraction so the notification stays until acted on.
func (s *NotificationService) BuildNotification(payload push.Payload, isIOS bool) push.Notification {
	return push.Notification{
		Title:              payload.Title,
		Body:               payload.Body,
		Icon:               "/icons/icon-192.png",
		Badge:              "/icons/icon-192.png",
		Tag:                notificationTag,
		RequireInteraction: isIOS,
		Actions: []push.Action{
			{Action: "view", Title: "View"},
			{Action: "dismiss", Title: "Dismiss"},
		},
		EventID:    payload.EventID,
		URL:        payload.URL,
		PrimaryKey: payload.PrimaryKey,
	}
}

// Present parses a raw push body (three-tier fallback, never dropped),
// renders it, and broadcasts it to every connected client.
func (s *NotificationService) Present(raw []byte, isIOS bool) push.Notification {
	payload := push.Parse(raw)
	notification := s.BuildNotification(payload, isIOS)

	s.logger.Push().Info("Presenting notification",
		"title", notification.Title, "eventId", notification.EventID)

	s.broadcaster.Broadcast(messages.ClientEvent{
		Type:    messages.TypeNotification,
		Payload: notification,
	})
	return notification
}

// HandleClick dispatches a notification click to clients. The view action
// (and a body click) forwards the event reference so an open client can
// focus and deep-link; dismiss is a no-op beyond logging.
func (s *NotificationService) HandleClick(action, eventID, url string) {
	if action == "dismiss" {
		s.logger.Push().Debug("Notification dismissed", "eventId", eventID)
		return
	}

	s.logger.Push().Info("Notification clicked", "action", action, "eventId", eventID, "url", url)
	s.broadcaster.Broadcast(messages.ClientEvent{
		Type: messages.TypeNotificationClick,
		Payload: map[string]string{
			"eventId": eventID,
			"url":     url,
		},
	})
}
