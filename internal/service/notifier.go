package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nandusaji2001/ServConnect-sub001/internal/metrics"
	"github.com/nandusaji2001/ServConnect-sub001/internal/pubsub"

	"github.com/rs/zerolog"
)

// Notification categories consumed by the platform notification service.
const (
	CategoryAutoBookingTriggered = "GasAutoBookingTriggered"
	CategoryOrderPlaced          = "GasOrderPlaced"
	CategoryOrderAccepted        = "GasOrderAccepted"
	CategoryOrderOutForDelivery  = "GasOrderOutForDelivery"
	CategoryOrderDelivered       = "GasOrderDelivered"
	CategoryOrderCancelled       = "GasOrderCancelled"
	CategoryLowGasAlert          = "GasLowLevelAlert"
)

// Notifier dispatches a notification as a one-way side effect. Delivery
// (in-app, SMS, email) is the notification service's concern; failures here
// are logged and never propagated to callers.
type Notifier interface {
	Notify(ctx context.Context, recipientID, title, body, category, relatedEntityID, actionLink string)
}

type notificationEvent struct {
	RecipientID     string    `json:"recipient_id"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	Category        string    `json:"category"`
	RelatedEntityID string    `json:"related_entity_id,omitempty"`
	ActionLink      string    `json:"action_link,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type pubsubNotifier struct {
	publisher pubsub.Publisher
	topic     string
	logger    zerolog.Logger
}

// NewNotifier creates a Notifier publishing events to the given Pub/Sub topic.
func NewNotifier(publisher pubsub.Publisher, topic string, logger zerolog.Logger) Notifier {
	return &pubsubNotifier{
		publisher: publisher,
		topic:     topic,
		logger:    logger.With().Str("service", "Notifier").Logger(),
	}
}

func (n *pubsubNotifier) Notify(ctx context.Context, recipientID, title, body, category, relatedEntityID, actionLink string) {
	payload, err := json.Marshal(notificationEvent{
		RecipientID:     recipientID,
		Title:           title,
		Body:            body,
		Category:        category,
		RelatedEntityID: relatedEntityID,
		ActionLink:      actionLink,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		n.logger.Error().Err(err).Str("category", category).Msg("Failed to marshal notification event")
		metrics.NotificationsPublished.WithLabelValues("error").Inc()
		return
	}
	if _, err := n.publisher.Publish(ctx, n.topic, payload); err != nil {
		n.logger.Error().Err(err).Str("recipient_id", recipientID).Str("category", category).Msg("Failed to publish notification")
		metrics.NotificationsPublished.WithLabelValues("error").Inc()
		return
	}
	metrics.NotificationsPublished.WithLabelValues("ok").Inc()
}
