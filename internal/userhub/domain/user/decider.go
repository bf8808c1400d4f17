package user

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/louisbranch/userhub/internal/userhub/domain/command"
	"github.com/louisbranch/userhub/internal/userhub/domain/event"
)

const (
	// CommandTypeCreate registers a new user account.
	CommandTypeCreate command.Type = "user.create"
	// CommandTypeAddPassword attaches password authentication to a user.
	CommandTypeAddPassword command.Type = "user.add_password"
	// CommandTypeDeactivate disables a user account.
	CommandTypeDeactivate command.Type = "user.deactivate"
	// CommandTypeChangeEmail replaces a user's contact address.
	CommandTypeChangeEmail command.Type = "user.change_email"

	// EventTypeCreated records that a user account was registered.
	EventTypeCreated event.Type = "user.created"
	// EventTypePasswordAdded records that password authentication was attached.
	EventTypePasswordAdded event.Type = "user.password_added"
	// EventTypeDeactivated records that a user account was disabled.
	EventTypeDeactivated event.Type = "user.deactivated"
	// EventTypeEmailChanged records that a user's contact address changed.
	EventTypeEmailChanged event.Type = "user.email_changed"

	rejectionCodeUserNameTaken      = "USERNAME_ALREADY_EXISTS"
	rejectionCodeEmailTaken         = "EMAIL_ALREADY_IN_USE"
	rejectionCodeUserNotFound       = "USER_NOT_FOUND"
	rejectionCodePasswordAlreadySet = "PASSWORD_ALREADY_SET"
	rejectionCodeUserDeactivated    = "USER_DEACTIVATED"
	rejectionCodeEmailUnchanged     = "EMAIL_UNCHANGED"
)

// Lookup carries cross-stream uniqueness facts the handler resolved from the
// user projection before calling the decider. The decider stays pure; the
// storage unique indexes remain the authority under concurrency.
type Lookup struct {
	UserNameTaken bool
	EmailTaken    bool
}

// Decide returns the decision for a user command against current state.
func Decide(state State, cmd command.Command, lookup Lookup, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}

	switch cmd.Type {
	case CommandTypeCreate:
		if lookup.UserNameTaken {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeUserNameTaken,
				Message: "Username already exists",
			})
		}
		if lookup.EmailTaken {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeEmailTaken,
				Message: "Email already in use",
			})
		}
		var payload CreatePayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		createdAt := now().UTC()

		payloadJSON, _ := json.Marshal(CreatedPayload{
			UserID:    strings.TrimSpace(payload.UserID),
			UserName:  strings.TrimSpace(payload.UserName),
			Email:     strings.TrimSpace(payload.Email),
			CreatedAt: createdAt,
		})
		return command.Accept(command.NewEvent(cmd, EventTypeCreated, event.StreamTypeUser, strings.TrimSpace(payload.UserID), payloadJSON, createdAt))

	case CommandTypeAddPassword:
		if !state.Exists {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeUserNotFound,
				Message: "User not found",
			})
		}
		if state.HasPassword {
			return command.Reject(command.Rejection{
				Code:    rejectionCodePasswordAlreadySet,
				Message: "User already has a password authentication",
			})
		}
		var payload AddPasswordPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		addedAt := now().UTC()

		payloadJSON, _ := json.Marshal(PasswordAddedPayload{
			UserID:       state.UserID,
			PasswordHash: payload.PasswordHash,
			AddedAt:      addedAt,
		})
		return command.Accept(command.NewEvent(cmd, EventTypePasswordAdded, event.StreamTypeUser, state.UserID, payloadJSON, addedAt))

	case CommandTypeDeactivate:
		if !state.Exists {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeUserNotFound,
				Message: "User not found",
			})
		}
		if state.Deactivated {
			// Deactivation is idempotent: repeating it succeeds without a
			// new event.
			return command.Accept()
		}
		deactivatedAt := now().UTC()

		payloadJSON, _ := json.Marshal(DeactivatedPayload{
			UserID:        state.UserID,
			DeactivatedAt: deactivatedAt,
		})
		return command.Accept(command.NewEvent(cmd, EventTypeDeactivated, event.StreamTypeUser, state.UserID, payloadJSON, deactivatedAt))

	case CommandTypeChangeEmail:
		if !state.Exists {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeUserNotFound,
				Message: "User not found",
			})
		}
		if state.Deactivated {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeUserDeactivated,
				Message: "Cannot change email for deactivated user",
			})
		}
		var payload ChangeEmailPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		newEmail := strings.TrimSpace(payload.NewEmail)
		if newEmail == state.Email {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeEmailUnchanged,
				Message: "New email is the same as current email",
			})
		}
		if lookup.EmailTaken {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeEmailTaken,
				Message: "Email already in use",
			})
		}
		changedAt := now().UTC()

		payloadJSON, _ := json.Marshal(EmailChangedPayload{
			UserID:    state.UserID,
			NewEmail:  newEmail,
			ChangedAt: changedAt,
		})
		return command.Accept(command.NewEvent(cmd, EventTypeEmailChanged, event.StreamTypeUser, state.UserID, payloadJSON, changedAt))
	}

	return command.Decision{}
}
