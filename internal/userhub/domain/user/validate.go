package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	userNameMinLength = 3
	userNameMaxLength = 50
	emailMaxLength    = 100
	passwordMinLength = 8
)

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	userNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateUserName checks the account-name rules applied at creation.
func ValidateUserName(userName string) error {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return errors.New("user name is required")
	}
	if len(userName) < userNameMinLength || len(userName) > userNameMaxLength {
		return fmt.Errorf("user name must be between %d and %d characters", userNameMinLength, userNameMaxLength)
	}
	if !userNamePattern.MatchString(userName) {
		return errors.New("Username can only contain letters, numbers, underscores, and hyphens")
	}
	return nil
}

// ValidateEmail checks the contact-address rules applied at creation and on
// email changes.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	if len(email) > emailMaxLength {
		return fmt.Errorf("email must be at most %d characters", emailMaxLength)
	}
	if !emailPattern.MatchString(email) {
		return errors.New("email is not a valid address")
	}
	return nil
}

// ValidatePassword checks the plaintext password rules before hashing.
func ValidatePassword(password string) error {
	if len(password) < passwordMinLength {
		return fmt.Errorf("password must be at least %d characters", passwordMinLength)
	}
	return nil
}

// ValidateCreatePayload validates a user.create command payload.
func ValidateCreatePayload(raw json.RawMessage) error {
	var payload CreatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode create payload: %w", err)
	}
	if strings.TrimSpace(payload.UserID) == "" {
		return errors.New("user id is required")
	}
	if err := ValidateUserName(payload.UserName); err != nil {
		return err
	}
	return ValidateEmail(payload.Email)
}

// ValidateAddPasswordPayload validates a user.add_password command payload.
func ValidateAddPasswordPayload(raw json.RawMessage) error {
	var payload AddPasswordPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode add password payload: %w", err)
	}
	if strings.TrimSpace(payload.UserID) == "" {
		return errors.New("user id is required")
	}
	if strings.TrimSpace(payload.PasswordHash) == "" {
		return errors.New("password hash is required")
	}
	return nil
}

// ValidateDeactivatePayload validates a user.deactivate command payload.
func ValidateDeactivatePayload(raw json.RawMessage) error {
	var payload DeactivatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode deactivate payload: %w", err)
	}
	if strings.TrimSpace(payload.UserID) == "" {
		return errors.New("user id is required")
	}
	return nil
}

// ValidateChangeEmailPayload validates a user.change_email command payload.
func ValidateChangeEmailPayload(raw json.RawMessage) error {
	var payload ChangeEmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode change email payload: %w", err)
	}
	if strings.TrimSpace(payload.UserID) == "" {
		return errors.New("user id is required")
	}
	return ValidateEmail(payload.NewEmail)
}
