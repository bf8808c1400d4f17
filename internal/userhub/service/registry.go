package service

import (
	"fmt"

	"github.com/louisbranch/userhub/internal/userhub/domain/command"
	"github.com/louisbranch/userhub/internal/userhub/domain/session"
	"github.com/louisbranch/userhub/internal/userhub/domain/user"
)

// NewCommandRegistry builds the static command table. Every supported
// command type is registered here, once, at startup.
func NewCommandRegistry() (*command.Registry, error) {
	registry := command.NewRegistry()
	definitions := []command.Definition{
		{Type: session.CommandTypeCreate, ValidatePayload: session.ValidateCreatePayload},
		{Type: session.CommandTypeEnd, RequiresSession: true, ValidatePayload: session.ValidateEndPayload},
		{Type: user.CommandTypeCreate, RequiresSession: true, ValidatePayload: user.ValidateCreatePayload},
		{Type: user.CommandTypeAddPassword, RequiresSession: true, ValidatePayload: user.ValidateAddPasswordPayload},
		{Type: user.CommandTypeDeactivate, RequiresSession: true, ValidatePayload: user.ValidateDeactivatePayload},
		{Type: user.CommandTypeChangeEmail, RequiresSession: true, ValidatePayload: user.ValidateChangeEmailPayload},
		{Type: commandTypeRebuild, RequiresSession: true},
	}
	for _, definition := range definitions {
		if err := registry.Register(definition); err != nil {
			return nil, fmt.Errorf("register %s: %w", definition.Type, err)
		}
	}
	return registry, nil
}
