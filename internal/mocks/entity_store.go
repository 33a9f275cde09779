package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/store"
)

// MockEntityStore is an in-memory store.EntityStore. Tables are created on
// first write and ids are assigned from a single counter.
type MockEntityStore struct {
	mu     sync.Mutex
	tables map[string]map[int64]domain.Record
	nextID int64

	// UniqueColumns lists, per table, the columns that reject duplicate
	// values with store.ErrDuplicate.
	UniqueColumns map[string][]string

	// Err, when set, is returned by every operation.
	Err error

	// Calls counts operations by name ("list", "list_by", "get", "create", "update", "delete").
	Calls map[string]int
}

// NewMockEntityStore creates an empty in-memory entity store.
func NewMockEntityStore() *MockEntityStore {
	return &MockEntityStore{
		tables:        make(map[string]map[int64]domain.Record),
		UniqueColumns: make(map[string][]string),
		Calls:         make(map[string]int),
	}
}

// Seed inserts a record with a fixed id, bypassing uniqueness checks.
func (m *MockEntityStore) Seed(table string, id int64, rec domain.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := copyRecord(rec)
	row["id"] = id
	m.table(table)[id] = row
	if id > m.nextID {
		m.nextID = id
	}
}

// Rows returns a copy of the raw stored rows of a table, hidden columns included.
func (m *MockEntityStore) Rows(table string) []domain.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(table)
}

func (m *MockEntityStore) table(name string) map[int64]domain.Record {
	t, ok := m.tables[name]
	if !ok {
		t = make(map[int64]domain.Record)
		m.tables[name] = t
	}
	return t
}

func (m *MockEntityStore) sorted(table string) []domain.Record {
	t := m.tables[table]
	ids := make([]int64, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyRecord(t[id]))
	}
	return out
}

func (m *MockEntityStore) begin(op string) error {
	m.Calls[op]++
	return m.Err
}

// checkUnique returns ErrDuplicate if another row holds the same value in a unique column.
func (m *MockEntityStore) checkUnique(table string, id int64, fields []domain.Assignment) error {
	for _, col := range m.UniqueColumns[table] {
		for _, f := range fields {
			if f.Column != col {
				continue
			}
			for otherID, row := range m.tables[table] {
				if otherID != id && row[col] == f.Value {
					return store.ErrDuplicate
				}
			}
		}
	}
	return nil
}

// List implements store.EntityStore.
func (m *MockEntityStore) List(_ context.Context, d *domain.EntityDescriptor) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("list"); err != nil {
		return nil, err
	}
	rows := m.sorted(d.Table)
	for _, r := range rows {
		d.Redact(r)
	}
	return rows, nil
}

// ListBy implements store.EntityStore. Values are compared by their
// printed form so decoded JSON numbers match integer ids.
func (m *MockEntityStore) ListBy(
	_ context.Context,
	d *domain.EntityDescriptor,
	column string,
	value int64,
) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("list_by"); err != nil {
		return nil, err
	}
	want := strconv.FormatInt(value, 10)
	out := make([]domain.Record, 0)
	for _, r := range m.sorted(d.Table) {
		if fmt.Sprint(r[column]) == want {
			out = append(out, d.Redact(r))
		}
	}
	return out, nil
}

// GetByID implements store.EntityStore.
func (m *MockEntityStore) GetByID(_ context.Context, d *domain.EntityDescriptor, id int64) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("get"); err != nil {
		return nil, err
	}
	return m.get(d, id)
}

func (m *MockEntityStore) get(d *domain.EntityDescriptor, id int64) (domain.Record, error) {
	row, ok := m.tables[d.Table][id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return d.Redact(copyRecord(row)), nil
}

// Create implements store.EntityStore.
func (m *MockEntityStore) Create(
	_ context.Context,
	d *domain.EntityDescriptor,
	fields []domain.Assignment,
) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("create"); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.NewValidationError("", "no fields to insert", nil)
	}
	if err := m.checkUnique(d.Table, 0, fields); err != nil {
		return nil, err
	}

	m.nextID++
	id := m.nextID
	row := domain.Record{d.PrimaryKey(): id}
	for _, f := range fields {
		row[f.Column] = f.Value
	}
	m.table(d.Table)[id] = row
	return m.get(d, id)
}

// Update implements store.EntityStore.
func (m *MockEntityStore) Update(
	_ context.Context,
	d *domain.EntityDescriptor,
	id int64,
	fields []domain.Assignment,
) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("update"); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.NewValidationError("", "no fields to update", nil)
	}
	row, ok := m.tables[d.Table][id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	if err := m.checkUnique(d.Table, id, fields); err != nil {
		return nil, err
	}
	for _, f := range fields {
		row[f.Column] = f.Value
	}
	return m.get(d, id)
}

// Delete implements store.EntityStore.
func (m *MockEntityStore) Delete(_ context.Context, d *domain.EntityDescriptor, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("delete"); err != nil {
		return err
	}
	if _, ok := m.tables[d.Table][id]; !ok {
		return store.ErrRecordNotFound
	}
	delete(m.tables[d.Table], id)
	return nil
}

// WithTx returns the same store; the in-memory store has no transactions.
func (m *MockEntityStore) WithTx(_ *sql.Tx) store.EntityStore {
	return m
}

func copyRecord(rec domain.Record) domain.Record {
	out := make(domain.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
