package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/louisbranch/userhub/internal/userhub/domain/command"
	"github.com/louisbranch/userhub/internal/userhub/domain/event"
)

func fixedClock() time.Time {
	return time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)
}

func TestDecideCreateEmitsCreated(t *testing.T) {
	t.Parallel()

	payload, _ := json.Marshal(CreatePayload{SessionID: "sess-1"})
	decision := Decide(State{}, command.Command{Type: CommandTypeCreate, PayloadJSON: payload}, fixedClock)

	if len(decision.Rejections) != 0 {
		t.Fatalf("unexpected rejections: %+v", decision.Rejections)
	}
	if len(decision.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(decision.Events))
	}
	evt := decision.Events[0]
	if evt.Type != EventTypeCreated {
		t.Fatalf("event type = %s, want %s", evt.Type, EventTypeCreated)
	}
	if evt.StreamID != "sess-1" {
		t.Fatalf("stream id = %s, want sess-1", evt.StreamID)
	}
	if evt.SessionID != "sess-1" {
		t.Fatalf("session id = %s, want sess-1", evt.SessionID)
	}

	var created CreatePayload
	if err := json.Unmarshal(evt.PayloadJSON, &created); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if !created.CreatedAt.Equal(fixedClock()) {
		t.Fatalf("created at = %v, want %v", created.CreatedAt, fixedClock())
	}
}

func TestDecideCreateRejectsExistingStream(t *testing.T) {
	t.Parallel()

	payload, _ := json.Marshal(CreatePayload{SessionID: "sess-1"})
	state := State{Exists: true, SessionID: "sess-1"}
	decision := Decide(state, command.Command{Type: CommandTypeCreate, PayloadJSON: payload}, fixedClock)

	if len(decision.Events) != 0 {
		t.Fatalf("expected no events, got %d", len(decision.Events))
	}
	if len(decision.Rejections) != 1 || decision.Rejections[0].Code != rejectionCodeSessionAlreadyExists {
		t.Fatalf("unexpected rejections: %+v", decision.Rejections)
	}
}

func TestDecideEndEmitsEnded(t *testing.T) {
	t.Parallel()

	payload, _ := json.Marshal(EndPayload{Reason: "logout"})
	state := State{Exists: true, SessionID: "sess-1", CreatedAt: fixedClock().Add(-time.Hour)}
	cmd := command.Command{Type: CommandTypeEnd, SessionID: "sess-1", PayloadJSON: payload}
	decision := Decide(state, cmd, fixedClock)

	if len(decision.Events) != 1 {
		t.Fatalf("expected 1 event, got %d (rejections %+v)", len(decision.Events), decision.Rejections)
	}
	evt := decision.Events[0]
	if evt.Type != EventTypeEnded {
		t.Fatalf("event type = %s, want %s", evt.Type, EventTypeEnded)
	}

	var ended EndedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &ended); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if ended.Reason != "logout" {
		t.Fatalf("reason = %q, want %q", ended.Reason, "logout")
	}
	if ended.SessionID != "sess-1" {
		t.Fatalf("session id = %q, want %q", ended.SessionID, "sess-1")
	}
}

func TestDecideEndRejectsClosedSession(t *testing.T) {
	t.Parallel()

	state := State{Exists: true, Closed: true, SessionID: "sess-1"}
	decision := Decide(state, command.Command{Type: CommandTypeEnd, SessionID: "sess-1"}, fixedClock)

	if len(decision.Events) != 0 {
		t.Fatalf("expected no events, got %d", len(decision.Events))
	}
	if len(decision.Rejections) != 1 {
		t.Fatalf("expected 1 rejection, got %+v", decision.Rejections)
	}
	if decision.Rejections[0].Message != "Session is closed" {
		t.Fatalf("message = %q, want %q", decision.Rejections[0].Message, "Session is closed")
	}
}

func TestFoldRoundTrip(t *testing.T) {
	t.Parallel()

	createPayload, _ := json.Marshal(CreatePayload{SessionID: "sess-1"})
	decision := Decide(State{}, command.Command{Type: CommandTypeCreate, PayloadJSON: createPayload}, fixedClock)
	if len(decision.Events) != 1 {
		t.Fatalf("expected 1 create event, got %d", len(decision.Events))
	}

	state, err := Fold(State{}, decision.Events[0])
	if err != nil {
		t.Fatalf("fold created: %v", err)
	}
	if !state.Exists || state.Closed {
		t.Fatalf("unexpected state after create: %+v", state)
	}
	if state.SessionID != "sess-1" {
		t.Fatalf("session id = %q, want %q", state.SessionID, "sess-1")
	}

	endPayload, _ := json.Marshal(EndPayload{Reason: "done"})
	decision = Decide(state, command.Command{Type: CommandTypeEnd, SessionID: "sess-1", PayloadJSON: endPayload}, fixedClock)
	if len(decision.Events) != 1 {
		t.Fatalf("expected 1 end event, got %d (rejections %+v)", len(decision.Events), decision.Rejections)
	}

	state, err = Fold(state, decision.Events[0])
	if err != nil {
		t.Fatalf("fold ended: %v", err)
	}
	if !state.Closed {
		t.Fatal("expected closed state after end")
	}
	if state.EndReason != "done" {
		t.Fatalf("end reason = %q, want %q", state.EndReason, "done")
	}
}

func TestFoldRejectsUnhandledEventType(t *testing.T) {
	t.Parallel()

	_, err := Fold(State{}, event.Event{
		StreamType: event.StreamTypeSession,
		StreamID:   "sess-1",
		Type:       "session.mystery",
		Timestamp:  fixedClock(),
	})
	if err == nil {
		t.Fatal("expected unhandled event type to fail")
	}
}
