package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/store"
)

// MockStatsStore is a canned store.StatsStore. It is safe for concurrent use.
type MockStatsStore struct {
	mu sync.Mutex

	// Counts is keyed by CountKey(table, filters...). Missing keys count zero.
	Counts map[string]int64
	// Since is keyed by table.
	Since map[string]int64
	// Groups is keyed by "table.column".
	Groups map[string][]domain.GroupCount
	// Totals is keyed by "parent.child.foreign_key".
	Totals map[string][]domain.EntityTotals
	// Recent is returned by Latest, keyed by table and truncated to the limit.
	Recent map[string][]domain.Record

	PoolStats domain.PoolStats
	// PingErr is returned by Pool.
	PingErr error
	// Err, when set, fails every query.
	Err error

	// LastLimit and LastSince record the arguments of the latest calls.
	LastLimit int
	LastSince time.Time
}

// NewMockStatsStore creates an empty MockStatsStore.
func NewMockStatsStore() *MockStatsStore {
	return &MockStatsStore{
		Counts: make(map[string]int64),
		Since:  make(map[string]int64),
		Groups: make(map[string][]domain.GroupCount),
		Totals: make(map[string][]domain.EntityTotals),
		Recent: make(map[string][]domain.Record),
	}
}

// CountKey renders a table and its filters, e.g. "totems[active=true]".
func CountKey(table string, filters ...domain.Assignment) string {
	if len(filters) == 0 {
		return table
	}
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = fmt.Sprintf("%s=%v", f.Column, f.Value)
	}
	return table + "[" + strings.Join(parts, ",") + "]"
}

// Count implements store.StatsStore.
func (m *MockStatsStore) Count(
	_ context.Context,
	d *domain.EntityDescriptor,
	filters ...domain.Assignment,
) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Counts[CountKey(d.Table, filters...)], nil
}

// CountSince implements store.StatsStore.
func (m *MockStatsStore) CountSince(_ context.Context, d *domain.EntityDescriptor, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.LastSince = since
	return m.Since[d.Table], nil
}

// CountBy implements store.StatsStore.
func (m *MockStatsStore) CountBy(
	_ context.Context,
	d *domain.EntityDescriptor,
	column string,
	_ ...domain.Assignment,
) ([]domain.GroupCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if g, ok := m.Groups[d.Table+"."+column]; ok {
		return g, nil
	}
	return []domain.GroupCount{}, nil
}

// ChildTotals implements store.StatsStore.
func (m *MockStatsStore) ChildTotals(
	_ context.Context,
	parent, child *domain.EntityDescriptor,
	foreignKey string,
) ([]domain.EntityTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if t, ok := m.Totals[parent.Table+"."+child.Table+"."+foreignKey]; ok {
		return t, nil
	}
	return []domain.EntityTotals{}, nil
}

// Latest implements store.StatsStore.
func (m *MockStatsStore) Latest(
	_ context.Context,
	d *domain.EntityDescriptor,
	_ string,
	limit int,
	_ ...domain.Assignment,
) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.LastLimit = limit
	recs := m.Recent[d.Table]
	if len(recs) > limit {
		recs = recs[:limit]
	}
	out := make([]domain.Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, d.Redact(copyRecord(r)))
	}
	return out, nil
}

// Pool implements store.StatsStore.
func (m *MockStatsStore) Pool(_ context.Context) (domain.PoolStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PoolStats, m.PingErr
}

var _ store.StatsStore = (*MockStatsStore)(nil)
