package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const endReasonMaxLength = 200

// ValidateCreatePayload validates a session.create command payload.
func ValidateCreatePayload(raw json.RawMessage) error {
	var payload CreatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode create payload: %w", err)
	}
	if strings.TrimSpace(payload.SessionID) == "" {
		return errors.New("session id is required")
	}
	return nil
}

// ValidateEndPayload validates a session.end command payload.
func ValidateEndPayload(raw json.RawMessage) error {
	var payload EndPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode end payload: %w", err)
	}
	if len(payload.Reason) > endReasonMaxLength {
		return fmt.Errorf("reason must be at most %d characters", endReasonMaxLength)
	}
	return nil
}
