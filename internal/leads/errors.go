package leads

import "errors"

var (
	// ErrMissingConversation is returned when the conversation id is absent.
	ErrMissingConversation = errors.New("conversation_id is required")

	// ErrMissingContact is returned when both email and phone are missing.
	ErrMissingContact = errors.New("either email or phone is required")

	// ErrLeadNotFound is returned when a lead is not found.
	ErrLeadNotFound = errors.New("lead not found")
)
