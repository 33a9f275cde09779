package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/store"
)

// MockConfigStore is an in-memory store.ConfigStore.
type MockConfigStore struct {
	mu      sync.Mutex
	entries map[string]*domain.ConfigEntry
	nextID  int64

	// DBConn is returned by DB. Tests of transactional code set it to a sqlmock pool.
	DBConn *sql.DB

	// UpdateValueFn overrides UpdateValue when set.
	UpdateValueFn func(ctx context.Context, key, raw string) error

	// Writes counts successful UpdateValue calls.
	Writes int
	// TxCount counts WithTx calls.
	TxCount int
}

// NewMockConfigStore creates a store holding copies of the given entries.
func NewMockConfigStore(entries ...*domain.ConfigEntry) *MockConfigStore {
	m := &MockConfigStore{entries: make(map[string]*domain.ConfigEntry)}
	for _, e := range entries {
		m.nextID++
		c := *e
		c.ID = m.nextID
		m.entries[c.Key] = &c
	}
	return m
}

// Raw returns the stored text of key, or false if the key is absent.
func (m *MockConfigStore) Raw(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return "", false
	}
	return e.RawValue, true
}

// List implements store.ConfigStore.
func (m *MockConfigStore) List(_ context.Context, category string) ([]*domain.ConfigEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.ConfigEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if category != "" && e.Category != category {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// Get implements store.ConfigStore.
func (m *MockConfigStore) Get(_ context.Context, key string) (*domain.ConfigEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, store.ErrConfigNotFound
	}
	c := *e
	return &c, nil
}

// Create implements store.ConfigStore.
func (m *MockConfigStore) Create(_ context.Context, entry *domain.ConfigEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[entry.Key]; exists {
		return store.ErrConfigExists
	}
	m.nextID++
	now := time.Now().UTC()
	entry.ID = m.nextID
	entry.CreatedAt = now
	entry.UpdatedAt = now
	c := *entry
	m.entries[entry.Key] = &c
	return nil
}

// UpdateValue implements store.ConfigStore.
func (m *MockConfigStore) UpdateValue(ctx context.Context, key, raw string) error {
	if m.UpdateValueFn != nil {
		if err := m.UpdateValueFn(ctx, key, raw); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return store.ErrConfigNotFound
	}
	e.RawValue = raw
	e.UpdatedAt = time.Now().UTC()
	m.Writes++
	return nil
}

// Delete implements store.ConfigStore.
func (m *MockConfigStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return store.ErrConfigNotFound
	}
	delete(m.entries, key)
	return nil
}

// Categories implements store.ConfigStore.
func (m *MockConfigStore) Categories(_ context.Context) ([]domain.CategoryCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]int64)
	for _, e := range m.entries {
		counts[e.Category]++
	}
	out := make([]domain.CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, domain.CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// WithTx records the call and returns the same store.
func (m *MockConfigStore) WithTx(_ *sql.Tx) store.ConfigStore {
	m.mu.Lock()
	m.TxCount++
	m.mu.Unlock()
	return m
}

// DB implements store.ConfigStore.
func (m *MockConfigStore) DB() *sql.DB {
	return m.DBConn
}
