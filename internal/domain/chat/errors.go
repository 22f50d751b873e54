package chat

import "errors"

var (
	ErrCannotChatSelf   = errors.New("cannot start chat with yourself")
	ErrMessageNotFound  = errors.New("message not found")
	ErrNotOffer         = errors.New("message is not an offer")
	ErrMalformedMessage = errors.New("message kind does not match its content")
	ErrEmptyMessage     = errors.New("message text is empty")
)
