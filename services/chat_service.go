package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"venuematch_server/metrics"
	"venuematch_server/models"
	"venuematch_server/store"

	"github.com/google/uuid"
)

// ChatService is the messaging gate. It admits messages into a Match thread
// and keeps read receipts and typing markers.
type ChatService struct {
	Store      store.Store
	Matches    *MatchService
	Blocks     BlockList
	Validator  TextValidator
	Typing     TypingStore
	Notify     *NotificationService
	Clock      Clock
	MessageCap int
	TypingTTL  time.Duration
	Timeout    time.Duration
}

// gateState is everything the gate knows about one sender in one Match.
type gateState struct {
	Match     *models.Match
	Used      int // quota slots claimed so far
	Remaining int
}

func (g *gateState) decision() models.SendDecision {
	return models.SendDecision{Allowed: true, Remaining: g.Remaining}
}

// usage counts the sender's claimed slots and the quota left. A contact
// shared Match reports the quota as it stood when contact was first shared.
func (s *ChatService) usage(ctx context.Context, match *models.Match, senderID string) (used, remaining int, err error) {
	var slots []models.QuotaSlot
	if err := s.Store.Query(ctx, models.MatchPK(match.ID), models.QuotaSlotPrefix(senderID), &slots); err != nil {
		return 0, 0, fmt.Errorf("failed to count messages in match %s: %w", match.ID, err)
	}
	counted := len(slots)
	if match.ContactShared() {
		counted = 0
		for i := range slots {
			if slots[i].CreatedAt.Before(*match.ContactSharedAt) {
				counted++
			}
		}
	}
	return len(slots), max(s.MessageCap-counted, 0), nil
}

// evaluate runs every gate rule against fresh state. Expected refusals come
// back as engine errors.
func (s *ChatService) evaluate(ctx context.Context, matchID, senderID string) (*gateState, error) {
	match, err := s.Matches.getForParty(ctx, matchID, senderID)
	if err != nil {
		return nil, err
	}
	if match.Expired(s.Clock.Now()) {
		return nil, fmt.Errorf("match %s expired at %s: %w", matchID, match.ExpiresAt.Format(time.RFC3339), ErrExpired)
	}

	blockCtx, cancel := withTimeout(ctx, s.Timeout)
	blocked, err := s.Blocks.IsBlocked(blockCtx, match.UserIDA, match.UserIDB)
	cancel()
	if err != nil {
		log.Printf("❌ Block list lookup failed for match %s: %v", matchID, err)
		return nil, unavailable("block list", err)
	}
	if blocked {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrBlocked)
	}

	used, remaining, err := s.usage(ctx, match, senderID)
	if err != nil {
		return nil, err
	}
	state := &gateState{Match: match, Used: used, Remaining: remaining}
	if !match.ContactShared() && remaining == 0 {
		return state, fmt.Errorf("sender %s used all %d messages in match %s: %w", senderID, s.MessageCap, matchID, ErrQuotaExceeded)
	}
	return state, nil
}

// refusals that CanSend reports as a decision rather than an error
var refusals = []error{ErrExpired, ErrBlocked, ErrQuotaExceeded}

// CanSend reports whether senderID may post into the Match right now.
// Missing matches, non-parties and collaborator outages are errors.
func (s *ChatService) CanSend(ctx context.Context, matchID, senderID string) (models.SendDecision, error) {
	state, err := s.evaluate(ctx, matchID, senderID)
	if err != nil {
		for _, refusal := range refusals {
			if errors.Is(err, refusal) {
				decision := models.SendDecision{Reason: KindOf(err)}
				if state != nil {
					decision.Remaining = state.Remaining
				}
				return decision, nil
			}
		}
		return models.SendDecision{}, err
	}
	return state.decision(), nil
}

// Send re-runs the gate and appends the message. The quota slot is claimed
// in the same batch as the message, so two racing sends cannot share a slot.
func (s *ChatService) Send(ctx context.Context, matchID, senderID, text string) (*models.Message, error) {
	var cleaned string
	validated := false

	// A slot collision means another send by the same sender took that slot,
	// which happens at most MessageCap times before the quota runs out.
	for attempt := 0; attempt < maxAttempts+s.MessageCap; attempt++ {
		state, err := s.evaluate(ctx, matchID, senderID)
		if err != nil {
			metrics.GateRejections.WithLabelValues(KindOf(err)).Inc()
			return nil, err
		}

		if !validated {
			if cleaned, err = s.validate(ctx, text); err != nil {
				metrics.GateRejections.WithLabelValues(KindOf(err)).Inc()
				return nil, err
			}
			validated = true
		}

		now := s.Clock.Now()
		msg := &models.Message{
			ID:        uuid.New().String(),
			MatchID:   matchID,
			SenderID:  senderID,
			Text:      cleaned,
			CreatedAt: now,
			ReadBy:    []string{senderID},
		}
		slot := models.QuotaSlot{MatchID: matchID, SenderID: senderID, Slot: state.Used + 1, MessageID: msg.ID, CreatedAt: now}

		err = s.Store.Write(ctx,
			store.PutIfAbsent(store.Key{PK: models.MatchPK(matchID), SK: models.MessageSKFor(now, msg.ID)}, msg),
			store.PutIfAbsent(store.Key{PK: models.MatchPK(matchID), SK: models.QuotaSlotSK(senderID, slot.Slot)}, slot),
		)
		if errors.Is(err, store.ErrConditionFailed) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to store message in match %s: %w", matchID, err)
		}

		metrics.MessagesSent.Inc()
		s.Notify.MessageReceived(ctx, state.Match, msg)
		if !state.Match.ContactShared() && state.Remaining == 1 {
			s.Notify.QuotaExhausted(ctx, state.Match, senderID)
		}
		return msg, nil
	}
	return nil, fmt.Errorf("send in match %s: %w", matchID, ErrConflict)
}

func (s *ChatService) validate(ctx context.Context, text string) (string, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	cleaned, err := s.Validator.Validate(ctx, text)
	if err != nil && !errors.Is(err, ErrValidationFailed) {
		return "", unavailable("text validator", err)
	}
	return cleaned, err
}

// RemainingQuota is how many more messages senderID may post. It ignores
// expiry and blocks.
func (s *ChatService) RemainingQuota(ctx context.Context, matchID, senderID string) (int, error) {
	match, err := s.Matches.getForParty(ctx, matchID, senderID)
	if err != nil {
		return 0, err
	}
	_, remaining, err := s.usage(ctx, match, senderID)
	return remaining, err
}

// ListMessages returns the thread in send order.
func (s *ChatService) ListMessages(ctx context.Context, matchID, userID string) ([]models.Message, error) {
	if _, err := s.Matches.getForParty(ctx, matchID, userID); err != nil {
		return nil, err
	}
	messages := []models.Message{}
	if err := s.Store.Query(ctx, models.MatchPK(matchID), models.MessageSK, &messages); err != nil {
		return nil, fmt.Errorf("failed to list messages in match %s: %w", matchID, err)
	}
	return messages, nil
}

// MarkRead adds userID to readBy on every message that lacks it and returns
// how many messages changed. Messages already read are not rewritten.
func (s *ChatService) MarkRead(ctx context.Context, matchID, userID string) (int, error) {
	messages, err := s.ListMessages(ctx, matchID, userID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range messages {
		changed, err := s.markOne(ctx, &messages[i], userID)
		if err != nil {
			return updated, err
		}
		if changed {
			updated++
		}
	}
	return updated, nil
}

func (s *ChatService) markOne(ctx context.Context, msg *models.Message, userID string) (bool, error) {
	key := store.Key{PK: models.MatchPK(msg.MatchID), SK: models.MessageSKFor(msg.CreatedAt, msg.ID)}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if !msg.MarkReadBy(userID) {
			return false, nil
		}
		err := s.Store.Write(ctx, store.PutIfVersion(key, msg, msg.Version))
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, store.ErrConditionFailed) {
			return false, fmt.Errorf("failed to mark message %s read: %w", msg.ID, err)
		}

		var fresh models.Message
		version, err := s.Store.Get(ctx, key, &fresh)
		if err != nil {
			return false, fmt.Errorf("failed to reload message %s: %w", msg.ID, err)
		}
		fresh.Version = version
		*msg = fresh
	}
	return false, fmt.Errorf("mark message %s read: %w", msg.ID, ErrConflict)
}

// SetTyping records or clears the typing marker of userID. The other party is
// told only when the marker flips. Markers expire after TypingTTL on their own.
func (s *ChatService) SetTyping(ctx context.Context, matchID, userID string, isTyping bool) error {
	match, err := s.Matches.getForParty(ctx, matchID, userID)
	if err != nil {
		return err
	}
	now := s.Clock.Now()
	if match.Expired(now) {
		return fmt.Errorf("match %s: %w", matchID, ErrExpired)
	}

	typingCtx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	states, err := s.Typing.ListTyping(typingCtx, matchID)
	if err != nil {
		return unavailable("typing store", err)
	}
	wasTyping := slices.ContainsFunc(states, func(st models.TypingState) bool { return st.UserID == userID })

	if isTyping {
		err = s.Typing.SetTyping(typingCtx, models.TypingState{MatchID: matchID, UserID: userID, ExpiresAt: now.Add(s.TypingTTL)})
	} else {
		err = s.Typing.ClearTyping(typingCtx, matchID, userID)
	}
	if err != nil {
		return unavailable("typing store", err)
	}

	if wasTyping != isTyping {
		s.Notify.TypingChanged(ctx, match, userID, isTyping)
	}
	return nil
}

// TypingIn lists who is typing in the Match right now.
func (s *ChatService) TypingIn(ctx context.Context, matchID, userID string) ([]models.TypingState, error) {
	if _, err := s.Matches.getForParty(ctx, matchID, userID); err != nil {
		return nil, err
	}
	typingCtx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	states, err := s.Typing.ListTyping(typingCtx, matchID)
	if err != nil {
		return nil, unavailable("typing store", err)
	}
	if states == nil {
		states = []models.TypingState{}
	}
	return states, nil
}
