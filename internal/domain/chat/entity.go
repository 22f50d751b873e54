package chat

import (
	"sort"
	"strings"
	"time"

	"github.com/gigboard/gigboard-api/internal/domain/engagement"
)

// MessageType represents message type
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeOffer MessageType = "offer"
)

// OfferCard embeds an engagement in a conversation. Its status mirrors the
// engagement, which stays the source of truth; History reloads it.
type OfferCard struct {
	EngagementID string            `json:"engagementId"`
	PostID       string            `json:"postId"`
	Status       engagement.Status `json:"status"`
}

// Message is the messages/{id} document. Exactly one of Text and Offer is
// set, as selected by Kind.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	SenderID       string      `json:"senderId"`
	RecipientID    string      `json:"recipientId"`
	Kind           MessageType `json:"kind"`
	Text           string      `json:"text,omitempty"`
	Offer          *OfferCard  `json:"offer,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Content is the kind-specific payload of a message: TextContent or *OfferCard
type Content interface {
	messageType() MessageType
}

// TextContent is a plain text message
type TextContent string

func (TextContent) messageType() MessageType { return MessageTypeText }

func (*OfferCard) messageType() MessageType { return MessageTypeOffer }

// Content returns the payload selected by Kind
func (m *Message) Content() (Content, error) {
	switch m.Kind {
	case MessageTypeText:
		if m.Offer != nil {
			return nil, ErrMalformedMessage
		}
		return TextContent(m.Text), nil
	case MessageTypeOffer:
		if m.Offer == nil {
			return nil, ErrMalformedMessage
		}
		return m.Offer, nil
	}
	return nil, ErrMalformedMessage
}

// HasParticipant checks if user is in this conversation
func (m *Message) HasParticipant(userID string) bool {
	return m.SenderID == userID || m.RecipientID == userID
}

// ConversationID identifies the conversation between two users regardless
// of who writes first
func ConversationID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}
