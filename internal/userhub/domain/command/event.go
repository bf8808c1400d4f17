package command

import (
	"time"

	"github.com/louisbranch/userhub/internal/userhub/domain/event"
)

// NewEvent builds an event.Event by copying the shared envelope fields from a
// command. Callers supply the event-specific type, stream addressing, payload,
// and timestamp. This eliminates per-decider boilerplate and ensures that new
// envelope fields are automatically forwarded.
func NewEvent(cmd Command, eventType event.Type, streamType event.StreamType, streamID string, payloadJSON []byte, now time.Time) event.Event {
	return event.Event{
		StreamType:  streamType,
		StreamID:    streamID,
		Type:        eventType,
		SessionID:   cmd.SessionID,
		Timestamp:   now,
		PayloadJSON: payloadJSON,
	}
}
