package credit

import "time"

// TxType defines supported credit transaction types.
type TxType string

const (
	TxTypeDeduction TxType = "deduction"
	TxTypeRefund    TxType = "refund"
	TxTypeGrant     TxType = "grant"
)

// Reasons recorded on ledger entries
const (
	ReasonEngagementSent   = "engagement_sent"
	ReasonPostCreated      = "post_created"
	ReasonWorkerDeclined   = "worker_declined"
	ReasonEmployerWithdrew = "employer_withdrew"
	ReasonMembership       = "membership_purchase"
	ReasonCreditPack       = "credit_pack_purchase"
)

// Ref correlates a ledger entry with the document that caused it.
type Ref struct {
	EngagementID string
	PostID       string
	PaymentID    string

	// Unlimited marks a refund of a deduction taken against the premium
	// sentinel
	Unlimited bool
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Type         TxType    `json:"type"`
	Amount       int       `json:"amount"`
	Reason       string    `json:"reason"`
	EngagementID string    `json:"engagementId,omitempty"`
	PostID       string    `json:"postId,omitempty"`
	PaymentID    string    `json:"paymentId,omitempty"`
	BalanceAfter int       `json:"balanceAfter"`
	Unlimited    bool      `json:"unlimited,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
