package identity

import (
	"context"
	"errors"

	"github.com/fadedpez/scoreboard/pkg/entities"
)

var (
	// ErrUserNotFound means no user has the requested internal ID
	ErrUserNotFound = errors.New("user not found")
)

// Repository maps transport identifiers to durable users and groups
type Repository interface {
	// GetOrCreateUser returns the user for externalID, creating it on first
	// sight. A non-empty nickname that differs from the stored one replaces it.
	GetOrCreateUser(ctx context.Context, externalID, nickname string) (*entities.User, error)

	// GetOrCreateGroup returns the group for externalID, creating it on first sight
	GetOrCreateGroup(ctx context.Context, externalID string) (*entities.Group, error)

	// GetUser loads a user by internal ID
	GetUser(ctx context.Context, id string) (*entities.User, error)

	// Close closes any resources used by the repository
	Close() error
}
