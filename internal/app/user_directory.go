// Package app provides application services that orchestrate use cases by
// coordinating between domain logic and infrastructure through port interfaces.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/go-reqlog/internal/domain"
	"github.com/jsamuelsen11/go-reqlog/internal/ports"
)

// Compile-time check that UserDirectory implements ports.UserDirectory.
var _ ports.UserDirectory = (*UserDirectory)(nil)

// UserDirectory implements ports.UserDirectory with an in-memory store. It
// backs the demo API routes that exercise the request logger.
type UserDirectory struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
	logger  *slog.Logger
	now     func() time.Time
}

// NewUserDirectory creates an empty UserDirectory. A nil logger discards
// output.
func NewUserDirectory(logger *slog.Logger) *UserDirectory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &UserDirectory{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
		logger:  logger,
		now:     time.Now,
	}
}

// GetUser returns a copy of the user with the given ID.
func (d *UserDirectory) GetUser(ctx context.Context, id string) (*domain.User, error) {
	d.mu.RLock()
	u, ok := d.byID[id]
	d.mu.RUnlock()

	if !ok {
		d.logger.DebugContext(ctx, "user not found", slog.String("id", id))
		return nil, fmt.Errorf("user %q: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

// CreateUser validates and stores a new user. Emails are unique,
// case-insensitively.
func (d *UserDirectory) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	key := strings.ToLower(user.Email)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.byEmail[key]; taken {
		return nil, fmt.Errorf("email %q: %w", user.Email, domain.ErrConflict)
	}

	u := *user
	u.ID = uuid.NewString()
	u.CreatedAt = d.now().UTC()
	d.byID[u.ID] = u
	d.byEmail[key] = u.ID

	d.logger.InfoContext(ctx, "user created", slog.String("id", u.ID))
	return &u, nil
}
