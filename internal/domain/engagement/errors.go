package engagement

import "errors"

var (
	ErrEngagementNotFound  = errors.New("engagement not found")
	ErrDuplicateEngagement = errors.New("an engagement for this post already exists")
	ErrSelfEngagement      = errors.New("cannot engage your own post")
	ErrPostOwnerMismatch   = errors.New("post does not belong to the worker")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrActorNotAllowed     = errors.New("this party cannot make the transition")
)
