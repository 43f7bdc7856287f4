package service

import (
	"context"
	"log/slog"

	"thoughtwave/internal/middleware"
	"thoughtwave/internal/observability"
)

// Domain event types delivered to affected users.
const (
	EventUserDeleted     = "user.deleted"
	EventThoughtCreated  = "thought.created"
	EventThoughtDeleted  = "thought.deleted"
	EventFriendAdded     = "friend.added"
	EventFriendRemoved   = "friend.removed"
	EventReactionAdded   = "reaction.added"
	EventReactionRemoved = "reaction.removed"
)

// EventPublisher delivers a domain event to one user's channel.
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, userID, eventType string, data any) error
}

// publish sends the event to each user. Delivery is best-effort: failures are
// logged and counted but never returned.
func publish(ctx context.Context, pub EventPublisher, eventType string, data any, userIDs ...string) {
	if pub == nil {
		return
	}
	for _, id := range userIDs {
		if err := pub.PublishUserEvent(ctx, id, eventType, data); err != nil {
			observability.EventsPublished.WithLabelValues(eventType, "error").Inc()
			middleware.Logger.WarnContext(ctx, "failed to publish event",
				slog.String("event", eventType),
				slog.String("user_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		observability.EventsPublished.WithLabelValues(eventType, "ok").Inc()
	}
}
