package identity

import (
	"context"
	"sync"
	"time"

	"github.com/fadedpez/scoreboard/pkg/entities"
	"github.com/google/uuid"
)

// MemoryRepository implements Repository interface with in-memory storage
type MemoryRepository struct {
	mu sync.Mutex
	// Map of internal ID to user
	users map[string]*entities.User
	// Map of external ID to internal user ID
	userIDs map[string]string
	// Map of external ID to group
	groups map[string]*entities.Group
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:   make(map[string]*entities.User),
		userIDs: make(map[string]string),
		groups:  make(map[string]*entities.Group),
	}
}

// GetOrCreateUser returns the user for externalID, creating it if needed
func (r *MemoryRepository) GetOrCreateUser(ctx context.Context, externalID, nickname string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.userIDs[externalID]; exists {
		user := r.users[id]
		if nickname != "" && nickname != user.Nickname {
			user.Nickname = nickname
		}
		u := *user
		return &u, nil
	}

	user := &entities.User{
		ID:         uuid.New().String(),
		ExternalID: externalID,
		Nickname:   nickname,
		CreatedAt:  time.Now().UTC(),
	}
	r.users[user.ID] = user
	r.userIDs[externalID] = user.ID

	u := *user
	return &u, nil
}

// GetOrCreateGroup returns the group for externalID, creating it if needed
func (r *MemoryRepository) GetOrCreateGroup(ctx context.Context, externalID string) (*entities.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, exists := r.groups[externalID]
	if !exists {
		group = &entities.Group{
			ID:         uuid.New().String(),
			ExternalID: externalID,
			CreatedAt:  time.Now().UTC(),
		}
		r.groups[externalID] = group
	}

	g := *group
	return &g, nil
}

// GetUser retrieves a user by internal ID
func (r *MemoryRepository) GetUser(ctx context.Context, id string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// Close is a no-op for memory repository since there are no resources to close
func (r *MemoryRepository) Close() error {
	return nil
}
