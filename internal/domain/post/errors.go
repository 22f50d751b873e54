package post

import "errors"

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrNotPostOwner     = errors.New("you can only change your own posts")
	ErrPostNotActive    = errors.New("post is not active")
	ErrInvalidSchedule  = errors.New("schedule end must be after start")
	ErrScheduleRequired = errors.New("seasonal posts require a schedule")
)
