package interview

import "errors"

var (
	// ErrSnapshotNotFound is returned when no memory snapshot exists for the
	// conversation.
	ErrSnapshotNotFound = errors.New("interview: conversation snapshot not found")

	// ErrSnapshotCorrupt is returned when a stored snapshot cannot be decoded.
	// The turn must be aborted without committing anything.
	ErrSnapshotCorrupt = errors.New("interview: conversation snapshot corrupt")

	// ErrMalformedExtraction is returned when the model's structured output
	// fails schema validation at the boundary.
	ErrMalformedExtraction = errors.New("interview: malformed extraction payload")

	// ErrConversationClosed is returned when a turn arrives for a
	// conversation already in the terminal phase.
	ErrConversationClosed = errors.New("interview: conversation is closed")
)
