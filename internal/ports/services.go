package ports

import (
	"context"

	"github.com/jsamuelsen11/go-reqlog/internal/domain"
	"github.com/jsamuelsen11/go-reqlog/internal/domain/reqlog"
)

// EntryDispatcher defines the service port the logging middleware uses to
// hand off finished entries. Implemented by the application layer.
type EntryDispatcher interface {
	// Dispatch enqueues the entry and returns immediately. It never blocks
	// on a backend and never fails; entries that cannot be queued are
	// dropped and counted.
	Dispatch(ctx context.Context, entry reqlog.Entry)
}

// UserDirectory defines the service port for the demo user resource.
// Implemented by the application layer; called by inbound adapters (handlers).
type UserDirectory interface {
	// GetUser returns a single user by ID.
	// Returns domain.ErrNotFound if the user does not exist.
	GetUser(ctx context.Context, id string) (*domain.User, error)

	// CreateUser stores a new user and returns it with its assigned ID.
	// Returns domain.ErrValidation if the user fails validation.
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
}
