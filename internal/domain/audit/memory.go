package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps events in process for the CLI and tests.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Record(_ context.Context, evt Event, before, after any) error {
	var err error
	if evt.Before, err = marshalOptional(before); err != nil {
		return err
	}
	if evt.After, err = marshalOptional(after); err != nil {
		return err
	}
	evt.ID = uuid.NewString()
	evt.CreatedAt = m.now().UTC()
	m.mu.Lock()
	m.events = append(m.events, evt)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Count(ctx context.Context, filter Filter) (int, error) {
	return len(m.matching(filter)), nil
}

func (m *MemoryStore) List(_ context.Context, filter Filter, limit, offset int) ([]Event, error) {
	items := m.matching(filter)
	if offset >= len(items) {
		return []Event{}, nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryStore) matching(filter Filter) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Event{}
	for i := len(m.events) - 1; i >= 0; i-- {
		evt := m.events[i]
		if filter.PeriodID != "" && evt.PeriodID != filter.PeriodID {
			continue
		}
		if filter.Action != "" && evt.Action != filter.Action {
			continue
		}
		out = append(out, evt)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

var (
	_ Log = (*Store)(nil)
	_ Log = (*MemoryStore)(nil)
)
