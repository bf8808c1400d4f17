package session

import "time"

// State captures the replayed session context for command routing.
//
// The command engine folds the session stream into this aggregate before
// deciding lifecycle commands against it.
type State struct {
	// Exists indicates whether a create event has been folded for this stream.
	Exists bool
	// Closed indicates whether the session lifecycle has been concluded.
	Closed bool
	// SessionID is the canonical identifier for the session stream.
	SessionID string
	// CreatedAt records when the session was opened.
	CreatedAt time.Time
	// EndedAt records when the session was closed, zero while it is live.
	EndedAt time.Time
	// EndReason is the caller-supplied reason the session was closed.
	EndReason string
}
