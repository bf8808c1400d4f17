package session

import "time"

// CreatePayload captures the payload for session.create commands and
// session.created events.
type CreatePayload struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// EndPayload captures the payload for session.end commands.
type EndPayload struct {
	Reason string `json:"reason,omitempty"`
}

// EndedPayload captures the payload for session.ended events.
type EndedPayload struct {
	SessionID string    `json:"session_id"`
	Reason    string    `json:"reason,omitempty"`
	EndedAt   time.Time `json:"ended_at"`
}
