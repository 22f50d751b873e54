package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gigboard/gigboard-api/internal/domain/engagement"
	"github.com/gigboard/gigboard-api/internal/store"
)

const defaultHistoryLimit = 50

// Service handles chat messages and offer cards
type Service struct {
	store       store.Store
	engagements *engagement.Service
}

// NewService creates chat service
func NewService(s store.Store, engagements *engagement.Service) *Service {
	return &Service{store: s, engagements: engagements}
}

// SendText posts a plain text message
func (s *Service) SendText(ctx context.Context, senderID string, req SendMessageRequest) (*Message, error) {
	if senderID == req.RecipientID {
		return nil, ErrCannotChatSelf
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	now := s.engagements.Now()
	m := &Message{
		ID:             uuid.NewString(),
		ConversationID: ConversationID(senderID, req.RecipientID),
		SenderID:       senderID,
		RecipientID:    req.RecipientID,
		Kind:           MessageTypeText,
		Text:           text,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Set(ctx, store.CollectionMessages, m.ID, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SendOffer creates an engagement and its offer card in one transaction.
// The employer is charged exactly as for a direct engagement.
func (s *Service) SendOffer(ctx context.Context, employerID string, req SendOfferRequest) (*OfferResponse, error) {
	var out *OfferResponse
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := s.engagements.PrepareCreate(ctx, tx, employerID, engagement.CreateRequest{
			WorkerID: req.WorkerID,
			PostID:   req.PostID,
			Message:  req.Text,
		})
		if err != nil {
			return err
		}
		if err := c.Apply(); err != nil {
			return err
		}
		e := c.Engagement

		m := &Message{
			ID:             uuid.NewString(),
			ConversationID: ConversationID(employerID, req.WorkerID),
			SenderID:       employerID,
			RecipientID:    req.WorkerID,
			Kind:           MessageTypeOffer,
			Text:           strings.TrimSpace(req.Text),
			Offer:          &OfferCard{EngagementID: e.ID, PostID: e.AvailabilityPostID, Status: e.Status},
			CreatedAt:      e.CreatedAt,
			UpdatedAt:      e.CreatedAt,
		}
		if err := tx.Create(store.CollectionMessages, m.ID, m); err != nil {
			return err
		}
		out = &OfferResponse{Message: m, Engagement: e}
		return nil
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return nil, engagement.ErrDuplicateEngagement
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("message_id", out.Message.ID).
		Str("engagement_id", out.Engagement.ID).
		Str("user_id", employerID).
		Msg("Offer sent")
	return out, nil
}

// UpdateOffer applies a status change from an offer card to its
// engagement and mirrors the result back onto the card
func (s *Service) UpdateOffer(ctx context.Context, actorID, messageID string, next engagement.Status) (*OfferResponse, error) {
	var out *OfferResponse
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var m Message
		if err := tx.Get(ctx, store.CollectionMessages, messageID, &m); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrMessageNotFound
			}
			return fmt.Errorf("load message %s: %w", messageID, err)
		}
		if !m.HasParticipant(actorID) {
			return ErrMessageNotFound
		}
		content, err := m.Content()
		if err != nil {
			return err
		}
		card, ok := content.(*OfferCard)
		if !ok {
			return ErrNotOffer
		}

		c, err := s.engagements.PrepareTransition(ctx, tx, actorID, card.EngagementID, next)
		if err != nil {
			return err
		}
		if err := c.Apply(); err != nil {
			return err
		}
		e := c.Engagement

		card.Status = e.Status
		m.UpdatedAt = e.UpdatedAt
		if err := tx.Set(store.CollectionMessages, m.ID, m); err != nil {
			return err
		}
		out = &OfferResponse{Message: &m, Engagement: e}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("message_id", messageID).
		Str("engagement_id", out.Engagement.ID).
		Str("status", string(next)).
		Msg("Offer updated")
	return out, nil
}

// History returns the newest messages between userID and otherID
func (s *Service) History(ctx context.Context, userID, otherID string, limit int) ([]Message, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultHistoryLimit
	}
	q := store.Where(store.CollectionMessages, "conversationId", ConversationID(userID, otherID))
	q.OrderBy = "createdAt"
	q.Desc = true
	q.Limit = limit

	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]Message, 0, len(docs))
	for _, d := range docs {
		var m Message
		if err := d.DataTo(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := s.refreshOffers(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// refreshOffers sets each offer card to its engagement's current status.
// Engagements can also move through the engagement API, which does not
// touch the card.
func (s *Service) refreshOffers(ctx context.Context, messages []Message) error {
	statuses := make(map[string]engagement.Status)
	for i := range messages {
		card := messages[i].Offer
		if messages[i].Kind != MessageTypeOffer || card == nil {
			continue
		}

		status, ok := statuses[card.EngagementID]
		if !ok {
			var e engagement.Engagement
			err := s.store.Get(ctx, store.CollectionEngagements, card.EngagementID, &e)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("load engagement %s: %w", card.EngagementID, err)
			}
			status = e.Status
			statuses[card.EngagementID] = status
		}
		card.Status = status
	}
	return nil
}
