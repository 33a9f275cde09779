package mocks

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/store"
)

// MockUserStore implements store.UserStore in memory. Passwords are "hashed"
// with FakeHash so MockPasswordVerifier can check them.
type MockUserStore struct {
	mu sync.Mutex

	// Function fields for customizable behavior
	CreateFn         func(ctx context.Context, user *domain.User) error
	TouchLastLoginFn func(ctx context.Context, id int64) error

	// Data for default implementation
	Users  map[int64]*domain.User
	nextID int64
}

// NewMockUserStore creates a store holding the given users. Users with a
// plaintext Password get it hashed with FakeHash.
func NewMockUserStore(users ...*domain.User) *MockUserStore {
	m := &MockUserStore{Users: make(map[int64]*domain.User)}
	for _, u := range users {
		if u.ID == 0 {
			m.nextID++
			u.ID = m.nextID
		} else if u.ID > m.nextID {
			m.nextID = u.ID
		}
		if u.Password != "" {
			u.HashedPassword = FakeHash(u.Password)
			u.Password = ""
		}
		m.Users[u.ID] = u
	}
	return m
}

// FakeHash is the reversible stand-in for bcrypt used by the mocks.
func FakeHash(password string) string {
	return "hashed:" + password
}

// Create implements the UserStore interface
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	if err := user.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Users {
		if strings.EqualFold(existing.Email, user.Email) || existing.Username == user.Username {
			return store.ErrEmailExists
		}
	}

	m.nextID++
	user.ID = m.nextID
	user.HashedPassword = FakeHash(user.Password)
	user.Password = ""
	stored := *user
	m.Users[user.ID] = &stored
	return nil
}

// GetByID implements the UserStore interface
func (m *MockUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// GetByEmail implements the UserStore interface
func (m *MockUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// UpdatePassword implements the UserStore interface
func (m *MockUserStore) UpdatePassword(_ context.Context, id int64, password string) error {
	if err := domain.ValidatePassword(password); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.HashedPassword = FakeHash(password)
	return nil
}

// TouchLastLogin implements the UserStore interface
func (m *MockUserStore) TouchLastLogin(ctx context.Context, id int64) error {
	if m.TouchLastLoginFn != nil {
		return m.TouchLastLoginFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	now := time.Now().UTC()
	u.LastLoginAt = &now
	return nil
}

// WithTx returns the same mock.
func (m *MockUserStore) WithTx(_ *sql.Tx) store.UserStore {
	return m
}
