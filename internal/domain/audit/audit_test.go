package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBaseQuery(t *testing.T) {
	query, args := buildBaseQuery("SELECT COUNT(1)", Filter{PeriodID: "p1", Action: ActionOverrideApply})
	assert.Equal(t, "SELECT COUNT(1) FROM audit_events WHERE 1=1 AND period_id = $1 AND action = $2", query)
	assert.Equal(t, []any{"p1", ActionOverrideApply}, args)

	query, args = buildBaseQuery("SELECT id", Filter{})
	assert.Equal(t, "SELECT id FROM audit_events WHERE 1=1", query)
	assert.Empty(t, args)
}

func TestMemoryStoreFiltersNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tick := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	require.NoError(t, store.Record(ctx, Event{PeriodID: "p1", Action: ActionShiftCreate, EntityID: "s1"}, nil, map[string]string{"date": "2025-03-03"}))
	require.NoError(t, store.Record(ctx, Event{PeriodID: "p1", Action: ActionOverrideApply, EntityID: "s1"}, nil, nil))
	require.NoError(t, store.Record(ctx, Event{PeriodID: "p2", Action: ActionShiftCreate, EntityID: "s9"}, nil, nil))

	events, err := store.List(ctx, Filter{PeriodID: "p1"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionOverrideApply, events[0].Action)
	assert.JSONEq(t, `{"date":"2025-03-03"}`, string(events[1].After))
	assert.Nil(t, events[0].Before)

	total, err := store.Count(ctx, Filter{Action: ActionShiftCreate})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	page, err := store.List(ctx, Filter{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ActionOverrideApply, page[0].Action)
}
