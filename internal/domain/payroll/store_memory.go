package payroll

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps periods in process memory. The CLI uses it to report on
// a period file without a database.
type MemoryStore struct {
	mu          sync.RWMutex
	periods     map[string]Period
	entries     map[string]map[string]Entry
	adjustments map[string][]Adjustment
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		periods:     map[string]Period{},
		entries:     map[string]map[string]Entry{},
		adjustments: map[string][]Adjustment{},
		now:         time.Now,
	}
}

func (m *MemoryStore) CreatePeriod(_ context.Context, period Period) (Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	if period.CreatedAt.IsZero() {
		period.CreatedAt = m.now().UTC()
	}
	m.periods[period.ID] = period
	m.entries[period.ID] = map[string]Entry{}
	return period, nil
}

func (m *MemoryStore) GetPeriod(_ context.Context, periodID string) (Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	period, ok := m.periods[periodID]
	if !ok {
		return Period{}, ErrPeriodNotFound
	}
	return period, nil
}

func (m *MemoryStore) ListPeriods(_ context.Context, limit, offset int) ([]Period, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]Period, 0, len(m.periods))
	for _, p := range m.periods {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[j].StartDate.Before(all[i].StartDate) })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (m *MemoryStore) UpdatePeriod(_ context.Context, period Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.periods[period.ID]
	if !ok {
		return ErrPeriodNotFound
	}
	current.Label = period.Label
	current.BaseSalary = period.BaseSalary
	current.TransportEnabled = period.TransportEnabled
	m.periods[period.ID] = current
	return nil
}

func (m *MemoryStore) DeletePeriod(_ context.Context, periodID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.periods[periodID]; !ok {
		return ErrPeriodNotFound
	}
	delete(m.periods, periodID)
	delete(m.entries, periodID)
	delete(m.adjustments, periodID)
	return nil
}

func (m *MemoryStore) ListEntries(_ context.Context, periodID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.entries[periodID]))
	for _, e := range m.entries[periodID] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Shift.Date.Before(out[j].Shift.Date) })
	return out, nil
}

func (m *MemoryStore) GetEntry(_ context.Context, periodID, entryID string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[periodID][entryID]
	if !ok {
		return Entry{}, ErrShiftNotFound
	}
	return e, nil
}

func (m *MemoryStore) CreateEntry(_ context.Context, entry Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.entries[entry.PeriodID]
	if !ok {
		return Entry{}, ErrPeriodNotFound
	}
	for _, e := range bucket {
		if e.Shift.Date == entry.Shift.Date {
			return Entry{}, ErrDuplicateShiftDate
		}
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = m.now().UTC()
	entry.UpdatedAt = entry.CreatedAt
	bucket[entry.ID] = entry
	return entry, nil
}

func (m *MemoryStore) ReplaceShift(_ context.Context, periodID, entryID string, shift ShiftInput) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[periodID][entryID]
	if !ok {
		return Entry{}, ErrShiftNotFound
	}
	for id, other := range m.entries[periodID] {
		if id != entryID && other.Shift.Date == shift.Date {
			return Entry{}, ErrDuplicateShiftDate
		}
	}
	e.Shift = shift
	e.Override = nil
	e.UpdatedAt = m.now().UTC()
	m.entries[periodID][entryID] = e
	return e, nil
}

func (m *MemoryStore) SetOverride(_ context.Context, periodID, entryID string, override *Override) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[periodID][entryID]
	if !ok {
		return Entry{}, ErrShiftNotFound
	}
	e.Override = override
	e.UpdatedAt = m.now().UTC()
	m.entries[periodID][entryID] = e
	return e, nil
}

func (m *MemoryStore) DeleteEntry(_ context.Context, periodID, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[periodID][entryID]; !ok {
		return ErrShiftNotFound
	}
	delete(m.entries[periodID], entryID)
	return nil
}

func (m *MemoryStore) ListAdjustments(_ context.Context, periodID string) ([]Adjustment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Adjustment(nil), m.adjustments[periodID]...), nil
}

func (m *MemoryStore) CreateAdjustment(_ context.Context, adj Adjustment) (Adjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.periods[adj.PeriodID]; !ok {
		return Adjustment{}, ErrPeriodNotFound
	}
	if adj.ID == "" {
		adj.ID = uuid.NewString()
	}
	adj.CreatedAt = m.now().UTC()
	m.adjustments[adj.PeriodID] = append(m.adjustments[adj.PeriodID], adj)
	return adj, nil
}

func (m *MemoryStore) DeleteAdjustment(_ context.Context, periodID, adjustmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.adjustments[periodID]
	for i, adj := range items {
		if adj.ID == adjustmentID {
			m.adjustments[periodID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrAdjustmentNotFound
}
