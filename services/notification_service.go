package services

import (
	"context"
	"log"
	"time"

	"venuematch_server/metrics"
	"venuematch_server/models"
)

// Publisher delivers one event to its user. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event models.Event) error

func (f PublisherFunc) Publish(ctx context.Context, event models.Event) error { return f(ctx, event) }

// NotificationService fans events out to every configured publisher. A failed
// delivery is logged and counted and never fails the operation that caused it.
type NotificationService struct {
	Publishers []Publisher
	Timeout    time.Duration
	Clock      Clock
}

func NewNotificationService(clock Clock, timeout time.Duration, publishers ...Publisher) *NotificationService {
	return &NotificationService{Publishers: publishers, Timeout: timeout, Clock: clock}
}

// MatchFormed tells both users about a new match.
func (n *NotificationService) MatchFormed(ctx context.Context, match *models.Match, origin string) {
	for _, userID := range []string{match.UserIDA, match.UserIDB} {
		n.dispatch(ctx, models.EventMatchFormed, userID, map[string]any{
			"matchId":   match.ID,
			"otherUser": match.OtherParty(userID),
			"venueId":   match.VenueID,
			"expiresAt": match.ExpiresAt,
			"origin":    origin,
		})
	}
}

// MessageReceived tells the recipient about a new message.
func (n *NotificationService) MessageReceived(ctx context.Context, match *models.Match, msg *models.Message) {
	n.dispatch(ctx, models.EventMessageReceived, match.OtherParty(msg.SenderID), map[string]any{
		"matchId":   match.ID,
		"messageId": msg.ID,
		"senderId":  msg.SenderID,
		"text":      msg.Text,
		"createdAt": msg.CreatedAt,
	})
}

// QuotaExhausted tells a sender they have no messages left in the match.
func (n *NotificationService) QuotaExhausted(ctx context.Context, match *models.Match, senderID string) {
	n.dispatch(ctx, models.EventQuotaExhausted, senderID, map[string]any{
		"matchId":   match.ID,
		"remaining": 0,
	})
}

// TypingChanged tells the other party that userID started or stopped typing.
func (n *NotificationService) TypingChanged(ctx context.Context, match *models.Match, userID string, isTyping bool) {
	n.dispatch(ctx, models.EventTypingChanged, match.OtherParty(userID), map[string]any{
		"matchId":  match.ID,
		"userId":   userID,
		"isTyping": isTyping,
	})
}

func (n *NotificationService) dispatch(ctx context.Context, eventType models.EventType, userID string, payload map[string]any) {
	if n == nil || userID == "" {
		return
	}
	event := models.Event{Type: eventType, UserID: userID, Payload: payload, OccurredAt: n.Clock.Now()}

	// The triggering write has already committed; a cancelled request must not drop the event.
	ctx, cancel := withTimeout(context.WithoutCancel(ctx), n.Timeout)
	defer cancel()

	for _, p := range n.Publishers {
		if err := p.Publish(ctx, event); err != nil {
			metrics.NotificationsFailed.WithLabelValues(string(eventType)).Inc()
			log.Printf("⚠️ Failed to deliver %s to %s: %v", eventType, userID, err)
		}
	}
}
