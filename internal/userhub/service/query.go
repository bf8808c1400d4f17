package service

import (
	"context"

	"github.com/louisbranch/userhub/internal/userhub/storage"
)

// Queries serves the read side directly from projection documents. Queries
// never open a unit of work and never touch session activity.
type Queries struct {
	store storage.Store
}

// GetSession returns a session document by id.
func (q *Queries) GetSession(ctx context.Context, id string) (storage.SessionRecord, error) {
	return q.store.GetSession(ctx, id)
}

// GetUser returns a user document by id.
func (q *Queries) GetUser(ctx context.Context, id string) (storage.UserRecord, error) {
	return q.store.GetUser(ctx, id)
}

// GetUserByName returns a user document by account name.
func (q *Queries) GetUserByName(ctx context.Context, userName string) (storage.UserRecord, error) {
	return q.store.GetUserByName(ctx, userName)
}

// ListUsers pages through user documents ordered by account name.
func (q *Queries) ListUsers(ctx context.Context, limit, offset int) ([]storage.UserRecord, error) {
	return q.store.ListUsers(ctx, limit, offset)
}
