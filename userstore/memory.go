package userstore

import (
	"context"
	"sync"

	"github.com/finvault/authgate"
)

// Memory is an in-memory UserStore with the same error semantics as the
// Postgres store. Intended for tests and single-process demos.
type Memory struct {
	mu    sync.RWMutex
	users map[string]authgate.User
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]authgate.User)}
}

// FindByEmail looks a user up by normalized email.
func (m *Memory) FindByEmail(ctx context.Context, email string) (*authgate.User, error) {
	return m.find(func(u authgate.User) bool { return u.Email == email })
}

// FindByID looks a user up by id.
func (m *Memory) FindByID(ctx context.Context, id string) (*authgate.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, authgate.ErrUserNotFound
	}
	return &u, nil
}

// FindByVerificationToken looks a user up by pending verification token.
func (m *Memory) FindByVerificationToken(ctx context.Context, token string) (*authgate.User, error) {
	if token == "" {
		return nil, authgate.ErrUserNotFound
	}
	return m.find(func(u authgate.User) bool { return u.EmailVerificationToken == token })
}

// FindByResetToken looks a user up by pending password-reset token.
func (m *Memory) FindByResetToken(ctx context.Context, token string) (*authgate.User, error) {
	if token == "" {
		return nil, authgate.ErrUserNotFound
	}
	return m.find(func(u authgate.User) bool { return u.PasswordResetToken == token })
}

func (m *Memory) find(match func(authgate.User) bool) (*authgate.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			out := u
			return &out, nil
		}
	}
	return nil, authgate.ErrUserNotFound
}

// Save upserts the user, enforcing email uniqueness across the store.
func (m *Memory) Save(ctx context.Context, user *authgate.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.users {
		if id != user.ID && existing.Email == user.Email {
			return authgate.ErrDuplicateEmail
		}
	}
	m.users[user.ID] = *user
	return nil
}

// Exists reports whether a user with the normalized email is present.
func (m *Memory) Exists(ctx context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}
