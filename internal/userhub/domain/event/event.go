// Package event defines the journal event envelope shared by all streams.
package event

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	// ErrStreamTypeRequired indicates a missing stream type.
	ErrStreamTypeRequired = errors.New("stream type is required")
	// ErrStreamIDRequired indicates a missing stream id.
	ErrStreamIDRequired = errors.New("stream id is required")
	// ErrTypeRequired indicates a missing event type.
	ErrTypeRequired = errors.New("event type is required")
	// ErrTimestampRequired indicates a missing event timestamp.
	ErrTimestampRequired = errors.New("event timestamp is required")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// StreamType partitions the journal by entity kind.
type StreamType string

const (
	// StreamTypeSession is the stream type for session lifecycle events.
	StreamTypeSession StreamType = "session"
	// StreamTypeUser is the stream type for user lifecycle events.
	StreamTypeUser StreamType = "user"
)

// Type identifies the event type string.
type Type string

// Event is the append-only journal record. Seq is assigned by storage at
// commit time and is zero until then. SessionID names the session that was
// acting when the event was produced.
type Event struct {
	StreamType  StreamType
	StreamID    string
	Seq         uint64
	Type        Type
	SessionID   string
	Timestamp   time.Time
	PayloadJSON []byte
}

// ValidateForAppend normalizes and validates an event before it is staged
// for append. Payloads default to an empty JSON object and timestamps are
// coerced to UTC.
func ValidateForAppend(evt Event) (Event, error) {
	evt.StreamType = StreamType(strings.TrimSpace(string(evt.StreamType)))
	if evt.StreamType == "" {
		return Event{}, ErrStreamTypeRequired
	}
	evt.StreamID = strings.TrimSpace(evt.StreamID)
	if evt.StreamID == "" {
		return Event{}, ErrStreamIDRequired
	}
	evt.Type = Type(strings.TrimSpace(string(evt.Type)))
	if evt.Type == "" {
		return Event{}, ErrTypeRequired
	}
	if evt.Timestamp.IsZero() {
		return Event{}, ErrTimestampRequired
	}
	evt.Timestamp = evt.Timestamp.UTC()
	if len(evt.PayloadJSON) == 0 {
		evt.PayloadJSON = []byte("{}")
	}
	if !json.Valid(evt.PayloadJSON) {
		return Event{}, ErrPayloadInvalid
	}
	return evt, nil
}
