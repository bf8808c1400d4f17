package user

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

func existingState() State {
	return State{
		Exists:    true,
		UserID:    "user-1",
		UserName:  "alice",
		Email:     "alice@example.com",
		CreatedAt: fixedClock().Add(-time.Hour),
	}
}

func TestDecideCreateEmitsCreated(t *testing.T) {
	t.Parallel()

	payload, _ := json.Marshal(CreatePayload{UserID: "user-1", UserName: "alice", Email: "alice@example.com"})
	cmd := command.Command{Type: CommandTypeCreate, SessionID: "sess-1", PayloadJSON: payload}
	decision := Decide(State{}, cmd, Lookup{}, fixedClock)

	if len(decision.Events) != 1 {
		t.Fatalf("expected 1 event, got %d (rejections %+v)", len(decision.Events), decision.Rejections)
	}
	evt := decision.Events[0]
	if evt.Type != EventTypeCreated {
		t.Fatalf("event type = %s, want %s", evt.Type, EventTypeCreated)
	}
	if evt.StreamID != "user-1" {
		t.Fatalf("stream id = %s, want user-1", evt.StreamID)
	}
	if evt.SessionID != "sess-1" {
		t.Fatalf("session id = %s, want sess-1", evt.SessionID)
	}
}

func TestDecideCreateRejectsTakenUserName(t *testing.T) {
	t.Parallel()

	payload, _ := json.Marshal(CreatePayload{UserID: "user-2", UserName: "alice", Email: "other@example.com"})
	cmd := command.Command{Type: CommandTypeCreate, SessionID: "sess-1", PayloadJSON: payload}
	decision := Decide(State{}, cmd, Lookup{UserNameTaken: true}, fixedClock)

	if len(decision.Rejections) != 1 {
		t.Fatalf("expected 1 rejection, got %+v", decision.Rejections)
	}
	if decision.Rejections[0].Message != "Username already exists" {
		t.Fatalf("message = %q, want %q", decision.Rejections[0].Message, "Username already exists")
	}
}

func TestDecideAddPassword(t *testing.T) {
	t.Parallel()

	payload, _ := json.Marshal(AddPasswordPayload{UserID: "user-1", PasswordHash: "hash"})
	cmd := command.Command{Type: CommandTypeAddPassword, SessionID: "sess-1", PayloadJSON: payload}

	decision := Decide(existingState(), cmd, Lookup{}, fixedClock)
	if len(decision.Events) != 1 || decision.Events[0].Type != EventTypePasswordAdded {
		t.Fatalf("unexpected decision: %+v", decision)
	}

	decision = Decide(State{}, cmd, Lookup{}, fixedClock)
	if len(decision.Rejections) != 1 || decision.Rejections[0].Message != "User not found" {
		t.Fatalf("unexpected rejections for missing user: %+v", decision.Rejections)
	}

	state := existingState()
	state.HasPassword = true
	decision = Decide(state, cmd, Lookup{}, fixedClock)
	if len(decision.Rejections) != 1 || decision.Rejections[0].Message != "User already has a password authentication" {
		t.Fatalf("unexpected rejections for existing password: %+v", decision.Rejections)
	}
}

func TestDecideDeactivateIsIdempotent(t *testing.T) {
	t.Parallel()

	payload, _ := json.Marshal(DeactivatePayload{UserID: "user-1"})
	cmd := command.Command{Type: CommandTypeDeactivate, SessionID: "sess-1", PayloadJSON: payload}

	decision := Decide(existingState(), cmd, Lookup{}, fixedClock)
	if len(decision.Events) != 1 || decision.Events[0].Type != EventTypeDeactivated {
		t.Fatalf("unexpected decision: %+v", decision)
	}

	state := existingState()
	state.Deactivated = true
	decision = Decide(state, cmd, Lookup{}, fixedClock)
	if len(decision.Rejections) != 0 {
		t.Fatalf("expected no rejections, got %+v", decision.Rejections)
	}
	if len(decision.Events) != 0 {
		t.Fatalf("expected no events for repeated deactivation, got %d", len(decision.Events))
	}
}

func TestDecideChangeEmail(t *testing.T) {
	t.Parallel()

	payload, _ := json.Marshal(ChangeEmailPayload{UserID: "user-1", NewEmail: "new@example.com"})
	cmd := command.Command{Type: CommandTypeChangeEmail, SessionID: "sess-1", PayloadJSON: payload}

	decision := Decide(existingState(), cmd, Lookup{}, fixedClock)
	if len(decision.Events) != 1 || decision.Events[0].Type != EventTypeEmailChanged {
		t.Fatalf("unexpected decision: %+v", decision)
	}

	state := existingState()
	state.Deactivated = true
	decision = Decide(state, cmd, Lookup{}, fixedClock)
	if len(decision.Rejections) != 1 || decision.Rejections[0].Message != "Cannot change email for deactivated user" {
		t.Fatalf("unexpected rejections for deactivated user: %+v", decision.Rejections)
	}

	samePayload, _ := json.Marshal(ChangeEmailPayload{UserID: "user-1", NewEmail: "alice@example.com"})
	sameCmd := command.Command{Type: CommandTypeChangeEmail, SessionID: "sess-1", PayloadJSON: samePayload}
	decision = Decide(existingState(), sameCmd, Lookup{}, fixedClock)
	if len(decision.Rejections) != 1 || decision.Rejections[0].Message != "New email is the same as current email" {
		t.Fatalf("unexpected rejections for unchanged email: %+v", decision.Rejections)
	}

	decision = Decide(existingState(), cmd, Lookup{EmailTaken: true}, fixedClock)
	if len(decision.Rejections) != 1 || decision.Rejections[0].Message != "Email already in use" {
		t.Fatalf("unexpected rejections for taken email: %+v", decision.Rejections)
	}
}

func TestFoldReplaysLifecycle(t *testing.T) {
	t.Parallel()

	createPayload, _ := json.Marshal(CreatePayload{UserID: "user-1", UserName: "alice", Email: "alice@example.com"})
	decision := Decide(State{}, command.Command{Type: CommandTypeCreate, SessionID: "sess-1", PayloadJSON: createPayload}, Lookup{}, fixedClock)
	state, err := Fold(State{}, decision.Events[0])
	if err != nil {
		t.Fatalf("fold created: %v", err)
	}
	if !state.Exists || state.UserName != "alice" || state.Email != "alice@example.com" {
		t.Fatalf("unexpected state after create: %+v", state)
	}

	passwordPayload, _ := json.Marshal(AddPasswordPayload{UserID: "user-1", PasswordHash: "hash"})
	decision = Decide(state, command.Command{Type: CommandTypeAddPassword, SessionID: "sess-1", PayloadJSON: passwordPayload}, Lookup{}, fixedClock)
	state, err = Fold(state, decision.Events[0])
	if err != nil {
		t.Fatalf("fold password added: %v", err)
	}
	if !state.HasPassword {
		t.Fatal("expected password after fold")
	}

	changePayload, _ := json.Marshal(ChangeEmailPayload{UserID: "user-1", NewEmail: "new@example.com"})
	decision = Decide(state, command.Command{Type: CommandTypeChangeEmail, SessionID: "sess-1", PayloadJSON: changePayload}, Lookup{}, fixedClock)
	state, err = Fold(state, decision.Events[0])
	if err != nil {
		t.Fatalf("fold email changed: %v", err)
	}
	if state.Email != "new@example.com" {
		t.Fatalf("email = %q, want %q", state.Email, "new@example.com")
	}

	deactivatePayload, _ := json.Marshal(DeactivatePayload{UserID: "user-1"})
	decision = Decide(state, command.Command{Type: CommandTypeDeactivate, SessionID: "sess-1", PayloadJSON: deactivatePayload}, Lookup{}, fixedClock)
	state, err = Fold(state, decision.Events[0])
	if err != nil {
		t.Fatalf("fold deactivated: %v", err)
	}
	if !state.Deactivated {
		t.Fatal("expected deactivated after fold")
	}
}

func TestFoldRejectsUnhandledEventType(t *testing.T) {
	t.Parallel()

	_, err := Fold(State{}, event.Event{
		StreamType: event.StreamTypeUser,
		StreamID:   "user-1",
		Type:       "user.mystery",
		Timestamp:  fixedClock(),
	})
	if err == nil {
		t.Fatal("expected unhandled event type to fail")
	}
}
