package user

import "time"

// State captures the replayed user context for command decisions.
type State struct {
	// Exists indicates whether a create event has been folded for this stream.
	Exists bool
	// UserID is the canonical identifier for the user stream.
	UserID string
	// UserName is the unique account name chosen at creation.
	UserName string
	// Email is the current contact address.
	Email string
	// HasPassword indicates whether password authentication has been added.
	HasPassword bool
	// Deactivated indicates whether the account has been disabled.
	Deactivated bool
	// CreatedAt records when the account was created.
	CreatedAt time.Time
}
