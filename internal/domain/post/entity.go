package post

import "time"

// Type is the kind of availability post
type Type string

const (
	TypeSeasonal Type = "seasonal"
	TypeFullTime Type = "fulltime"
)

// Priority is the visibility state of a post
type Priority string

const (
	PriorityActive    Priority = "active"
	PriorityConsumed  Priority = "consumed"
	PriorityWithdrawn Priority = "withdrawn"
	PriorityExpired   Priority = "expired"
)

// Schedule bounds a seasonal post
type Schedule struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Ended reports whether the schedule end is at or before now
func (s *Schedule) Ended(now time.Time) bool {
	return s != nil && !s.End.After(now)
}

// Visibility holds the lifecycle state
type Visibility struct {
	Priority  Priority  `json:"priority"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Rate is the asking rate in cents per unit
type Rate struct {
	AmountCents int64  `json:"amountCents"`
	Unit        string `json:"unit,omitempty"`
}

// Post is the posts/{id} document
type Post struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Type          Type       `json:"type"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Schedule      *Schedule  `json:"schedule,omitempty"`
	Visibility    Visibility `json:"visibility"`
	Rate          Rate       `json:"rate"`
	Location      []string   `json:"location"`
	LedgerEntryID string     `json:"ledgerEntryId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// IsActive returns true if the post accepts engagements
func (p *Post) IsActive() bool {
	return p.Visibility.Priority == PriorityActive
}

// IsOwnedBy checks ownership
func (p *Post) IsOwnedBy(userID string) bool {
	return p.UserID == userID
}

// SetPriority moves the post to priority at now
func (p *Post) SetPriority(priority Priority, now time.Time) {
	now = now.UTC()
	p.Visibility = Visibility{Priority: priority, UpdatedAt: now}
	p.UpdatedAt = now
}

// InitialPriority is the visibility a post is born with. A seasonal post
// whose schedule has already ended starts expired.
func InitialPriority(t Type, s *Schedule, now time.Time) Priority {
	if t == TypeSeasonal && s.Ended(now) {
		return PriorityExpired
	}
	return PriorityActive
}
