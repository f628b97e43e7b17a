package adapters

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quranchallenge/server/domain"
	"github.com/quranchallenge/server/domain/entities"
)

// MemoryUserRepository is an in-memory implementation of UserRepository
type MemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[primitive.ObjectID]*entities.User // id -> user mapping
	emails map[string]*entities.User             // email -> user mapping
}

// NewMemoryUserRepository creates a new in-memory user repository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:  make(map[primitive.ObjectID]*entities.User),
		emails: make(map[string]*entities.User),
	}
}

// Create implements UserRepository interface
func (m *MemoryUserRepository) Create(ctx context.Context, user *entities.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}

	if err := user.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.emails[user.Email]; exists {
		return domain.ErrDuplicateEmail
	}

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	userCopy := *user
	m.users[user.ID] = &userCopy
	m.emails[user.Email] = &userCopy

	return nil
}

// GetByEmail implements UserRepository interface
func (m *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.emails[email]
	if !exists {
		return nil, domain.ErrNotFound
	}

	// Return a copy to prevent external modifications
	userCopy := *user
	return &userCopy, nil
}

// Count returns the number of stored users
func (m *MemoryUserRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}
