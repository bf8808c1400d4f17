package user

import "time"

// CreatePayload captures the payload for user.create commands.
type CreatePayload struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

// CreatedPayload captures the payload for user.created events.
type CreatedPayload struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AddPasswordPayload captures the payload for user.add_password commands.
// The handler hashes the plaintext before the command reaches the decider,
// so only the hash ever enters the journal.
type AddPasswordPayload struct {
	UserID       string `json:"user_id"`
	PasswordHash string `json:"password_hash"`
}

// PasswordAddedPayload captures the payload for user.password_added events.
type PasswordAddedPayload struct {
	UserID       string    `json:"user_id"`
	PasswordHash string    `json:"password_hash"`
	AddedAt      time.Time `json:"added_at"`
}

// DeactivatePayload captures the payload for user.deactivate commands.
type DeactivatePayload struct {
	UserID string `json:"user_id"`
}

// DeactivatedPayload captures the payload for user.deactivated events.
type DeactivatedPayload struct {
	UserID        string    `json:"user_id"`
	DeactivatedAt time.Time `json:"deactivated_at"`
}

// ChangeEmailPayload captures the payload for user.change_email commands.
type ChangeEmailPayload struct {
	UserID   string `json:"user_id"`
	NewEmail string `json:"new_email"`
}

// EmailChangedPayload captures the payload for user.email_changed events.
type EmailChangedPayload struct {
	UserID    string    `json:"user_id"`
	NewEmail  string    `json:"new_email"`
	ChangedAt time.Time `json:"changed_at"`
}
