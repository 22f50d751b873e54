package engagement

import (
	"time"

	"github.com/google/uuid"

	"github.com/gigboard/gigboard-api/internal/domain/credit"
)

// Status represents engagement status
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusWithdrawn Status = "withdrawn"
)

// idNamespace scopes the name-based engagement ids
var idNamespace = uuid.MustParse("3d0f6a8e-51c2-4b7e-9f1a-6c2b8e4d7a10")

// Engagement is a paid contact request from an employer to a worker about
// one availability post. Never deleted.
type Engagement struct {
	ID                 string    `json:"id"`
	FromUserID         string    `json:"fromUserId"`
	WorkerID           string    `json:"workerId"`
	AvailabilityPostID string    `json:"availabilityPostId"`
	Status             Status    `json:"status"`
	Message            string    `json:"message,omitempty"`
	LedgerEntryID      string    `json:"ledgerEntryId,omitempty"`
	ChargedUnlimited   bool      `json:"chargedUnlimited,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ID derives the engagement id from its unique tuple, so a second create
// for the same tuple collides in the store
func ID(employerID, workerID, postID string) string {
	return uuid.NewSHA1(idNamespace, []byte(employerID+"|"+workerID+"|"+postID)).String()
}

// IsPending returns true if engagement is pending
func (e *Engagement) IsPending() bool {
	return e.Status == StatusPending
}

// IsParticipant reports whether userID is the employer or the worker
func (e *Engagement) IsParticipant(userID string) bool {
	return userID == e.FromUserID || userID == e.WorkerID
}

// Counterpart returns the other participant
func (e *Engagement) Counterpart(userID string) string {
	if userID == e.FromUserID {
		return e.WorkerID
	}
	return e.FromUserID
}

// CanTransition checks that actor may move the engagement to next. Only
// pending engagements move; the worker accepts or declines, the employer
// withdraws.
func (e *Engagement) CanTransition(actor string, next Status) error {
	var allowedActor string
	switch next {
	case StatusAccepted, StatusDeclined:
		allowedActor = e.WorkerID
	case StatusWithdrawn:
		allowedActor = e.FromUserID
	default:
		return ErrInvalidTransition
	}

	if !e.IsPending() {
		return ErrInvalidTransition
	}
	if actor != allowedActor {
		return ErrActorNotAllowed
	}
	return nil
}

// RefundReason is the ledger reason for a transition that returns the
// employer's credit, or "" when next keeps the charge
func RefundReason(next Status) string {
	switch next {
	case StatusDeclined:
		return credit.ReasonWorkerDeclined
	case StatusWithdrawn:
		return credit.ReasonEmployerWithdrew
	}
	return ""
}
