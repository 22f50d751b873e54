package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type represents notification type
type Type string

const (
	TypeEngagementReceived  Type = "engagement_received"  // Worker: an employer reached out
	TypeEngagementAccepted  Type = "engagement_accepted"  // Employer: worker accepted
	TypeEngagementDeclined  Type = "engagement_declined"  // Employer: worker declined, credit refunded
	TypeEngagementWithdrawn Type = "engagement_withdrawn" // Worker: employer withdrew
)

// Notification is a notifications/{id} record. Records are only written;
// delivery is out of scope.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Type      Type              `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	Read      bool              `json:"read"`
	ReadAt    *time.Time        `json:"readAt,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// New builds an unread notification
func New(userID string, typ Type, title, body string, data map[string]string, now time.Time) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Body:      body,
		Data:      data,
		CreatedAt: now.UTC(),
	}
}
