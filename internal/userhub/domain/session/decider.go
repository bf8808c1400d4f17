package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/louisbranch/userhub/internal/userhub/domain/command"
	"github.com/louisbranch/userhub/internal/userhub/domain/event"
)

const (
	// CommandTypeCreate opens a new session stream.
	CommandTypeCreate command.Type = "session.create"
	// CommandTypeEnd closes the acting session.
	CommandTypeEnd command.Type = "session.end"

	// EventTypeCreated records that a session was opened.
	EventTypeCreated event.Type = "session.created"
	// EventTypeEnded records that a session was closed.
	EventTypeEnded event.Type = "session.ended"

	rejectionCodeSessionIDRequired     = "SESSION_ID_REQUIRED"
	rejectionCodeSessionAlreadyExists  = "SESSION_ALREADY_EXISTS"
	rejectionCodeSessionAlreadyClosed  = "SESSION_ALREADY_CLOSED"
	rejectionMessageSessionClosed      = "Session is closed"
	rejectionMessageSessionIDRequired  = "session id is required"
	rejectionMessageSessionDuplicateID = "session id is already in use"
)

// Decide returns the decision for a session command against current state.
//
// Both lifecycle transitions are represented as events so tests, projections,
// and replay all observe the same behavior.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}

	switch cmd.Type {
	case CommandTypeCreate:
		if state.Exists {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeSessionAlreadyExists,
				Message: rejectionMessageSessionDuplicateID,
			})
		}
		var payload CreatePayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		sessionID := strings.TrimSpace(payload.SessionID)
		if sessionID == "" {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeSessionIDRequired,
				Message: rejectionMessageSessionIDRequired,
			})
		}
		createdAt := now().UTC()

		payloadJSON, _ := json.Marshal(CreatePayload{SessionID: sessionID, CreatedAt: createdAt})
		evt := command.NewEvent(cmd, EventTypeCreated, event.StreamTypeSession, sessionID, payloadJSON, createdAt)
		// The created event is its own acting session.
		evt.SessionID = sessionID
		return command.Accept(evt)

	case CommandTypeEnd:
		if !state.Exists {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeSessionIDRequired,
				Message: rejectionMessageSessionIDRequired,
			})
		}
		if state.Closed {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeSessionAlreadyClosed,
				Message: rejectionMessageSessionClosed,
			})
		}
		var payload EndPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		endedAt := now().UTC()

		payloadJSON, _ := json.Marshal(EndedPayload{
			SessionID: state.SessionID,
			Reason:    strings.TrimSpace(payload.Reason),
			EndedAt:   endedAt,
		})
		return command.Accept(command.NewEvent(cmd, EventTypeEnded, event.StreamTypeSession, state.SessionID, payloadJSON, endedAt))
	}

	return command.Decision{}
}
