package post

import "time"

// ScheduleRequest bounds a seasonal post
type ScheduleRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtfield=Start"`
}

// RateRequest is the asking rate
type RateRequest struct {
	AmountCents int64  `json:"amountCents" validate:"gte=0"`
	Unit        string `json:"unit" validate:"rate_unit"`
}

// CreateRequest for POST /posts
type CreateRequest struct {
	Type        string           `json:"type" validate:"required,post_type"`
	Title       string           `json:"title" validate:"required,min=3,max=120"`
	Description string           `json:"description" validate:"max=2000"`
	Schedule    *ScheduleRequest `json:"schedule" validate:"omitempty"`
	Rate        *RateRequest     `json:"rate" validate:"omitempty"`
	Location    []string         `json:"location" validate:"max=10,dive,max=100"`
}

// ListFilter for GET /posts
type ListFilter struct {
	Type   Type
	UserID string
	Limit  int
}
