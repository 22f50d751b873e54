package chat

import "github.com/gigboard/gigboard-api/internal/domain/engagement"

// SendMessageRequest for POST /chat/messages
type SendMessageRequest struct {
	RecipientID string `json:"recipientId" validate:"required"`
	Text        string `json:"text" validate:"required,max=4000"`
}

// SendOfferRequest for POST /chat/offers
type SendOfferRequest struct {
	WorkerID string `json:"workerId" validate:"required"`
	PostID   string `json:"postId" validate:"required"`
	Text     string `json:"text" validate:"max=1000"`
}

// UpdateOfferRequest for PATCH /chat/offers/{messageId}
type UpdateOfferRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted declined withdrawn"`
}

// OfferResponse returns the offer message with its engagement
type OfferResponse struct {
	Message    *Message               `json:"message"`
	Engagement *engagement.Engagement `json:"engagement"`
}
