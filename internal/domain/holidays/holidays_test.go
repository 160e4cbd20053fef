package holidays

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomina/internal/domain/payroll"
	"nomina/internal/platform/metrics"
)

const nagerBody = `[
  {"date":"2025-01-01","localName":"Año Nuevo","name":"New Year's Day","countryCode":"CO","fixed":true,"global":true,"types":["Public"]},
  {"date":"2025-03-24","localName":"Día de San José","name":"Saint Joseph's Day","countryCode":"CO","fixed":false,"global":true,"types":["Public"]}
]`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPSourceFetch(t *testing.T) {
	paths := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, nagerBody)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/", "co", time.Second)
	items, err := src.Fetch(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, "/api/v3/PublicHolidays/2025/CO", <-paths)
	require.Len(t, items, 2)
	assert.Equal(t, payroll.MustDate("2025-03-24"), items[1].Date)
	assert.Equal(t, "Día de San José", items[1].LocalName)
}

func TestHTTPSourceFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		empty  bool
	}{
		{name: "server error", status: http.StatusInternalServerError},
		{name: "bad json", status: http.StatusOK, body: "{not json"},
		{name: "no content", status: http.StatusNoContent, empty: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			items, err := NewHTTPSource(srv.URL, "CO", time.Second).Fetch(context.Background(), 2025)
			if tc.empty {
				require.NoError(t, err)
				assert.Empty(t, items)
				return
			}
			assert.True(t, errors.Is(err, ErrUpstream))
		})
	}

	_, err := NewHTTPSource("http://127.0.0.1:1", "CO", time.Second).Fetch(context.Background(), 20250)
	assert.True(t, errors.Is(err, ErrInvalidYear))
}

func TestCalendarAndSet(t *testing.T) {
	cal := NewCalendar(2025, []Holiday{
		{Date: payroll.MustDate("2025-12-08")},
		{Date: payroll.MustDate("2025-01-06")},
		{Date: payroll.MustDate("2026-01-01")},
	})
	assert.Equal(t, 2, cal.Len())
	assert.Equal(t, payroll.MustDate("2025-01-06"), cal.List()[0].Date)

	set := NewSet(cal, NewCalendar(2026, []Holiday{{Date: payroll.MustDate("2026-01-01")}}))
	assert.True(t, set.IsHoliday(2025, time.December, 8))
	assert.True(t, set.IsHoliday(2026, time.January, 1))
	assert.False(t, set.IsHoliday(2025, time.December, 9))
	assert.False(t, set.IsHoliday(2027, time.January, 1))
}

type countingSource struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (s *countingSource) Fetch(ctx context.Context, year int) ([]Holiday, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return []Holiday{{Date: payroll.NewDate(year, time.January, 1), Name: "New Year's Day"}}, nil
}

func TestCacheSharesConcurrentFetches(t *testing.T) {
	src := &countingSource{release: make(chan struct{})}
	cache := NewCache(src, nil, quietLogger())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cal, err := cache.Get(context.Background(), 2025)
			assert.NoError(t, err)
			assert.Equal(t, 1, cal.Len())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())

	_, err := cache.Get(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())

	cache.Invalidate(2025)
	_, err = cache.Get(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

type ctxRecordingSource struct {
	calls   atomic.Int32
	release chan struct{}
	ctxErr  atomic.Value
}

func (s *ctxRecordingSource) Fetch(ctx context.Context, year int) ([]Holiday, error) {
	s.calls.Add(1)
	<-s.release
	s.ctxErr.Store(fmt.Sprint(ctx.Err()))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []Holiday{{Date: payroll.NewDate(year, time.March, 24)}}, nil
}

func TestCacheFetchSurvivesCancelledCaller(t *testing.T) {
	src := &ctxRecordingSource{release: make(chan struct{})}
	cache := NewCache(src, nil, quietLogger())

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Get(firstCtx, 2025)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		cal Calendar
		err error
	}
	second := make(chan result, 1)
	go func() {
		cal, err := cache.Get(context.Background(), 2025)
		second <- result{cal, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(src.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, 1, res.cal.Len())
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, "<nil>", src.ctxErr.Load())

	cal, err := cache.Get(context.Background(), 2025)
	require.NoError(t, err)
	assert.True(t, cal.Contains(payroll.MustDate("2025-03-24")))
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	src := &countingSource{err: errors.New("offline")}
	collector := metrics.New()
	cache := NewCache(src, collector, quietLogger())

	lookup, err := cache.Resolve(context.Background(), []int{2025, 2026})
	require.Error(t, err)
	require.NotNil(t, lookup)
	assert.False(t, lookup.IsHoliday(2025, time.January, 1))

	src.err = nil
	lookup, err = cache.Resolve(context.Background(), []int{2025})
	require.NoError(t, err)
	assert.True(t, lookup.IsHoliday(2025, time.January, 1))
	assert.Equal(t, int32(3), src.calls.Load())

	snap := collector.Snapshot()
	assert.Equal(t, uint64(3), snap["holidayFetchesTotal"])
	assert.Equal(t, uint64(2), snap["holidayFetchFailuresTotal"])
}

func TestCachePrefetchCounts(t *testing.T) {
	cache := NewCache(StaticSource{2025: {{Date: payroll.MustDate("2025-05-01")}, {Date: payroll.MustDate("2025-07-20")}}}, nil, quietLogger())
	counts, err := cache.Prefetch(context.Background(), 2025, 2026)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{2025: 2, 2026: 0}, counts)

	_, err = cache.Prefetch(context.Background(), 99999)
	assert.True(t, errors.Is(err, ErrInvalidYear))
}

type memHolidayStore struct {
	years   map[int][]Holiday
	readErr error
	saved   []int
}

func (m *memHolidayStore) ListByYear(_ context.Context, year int) ([]Holiday, bool, error) {
	if m.readErr != nil {
		return nil, false, m.readErr
	}
	items, ok := m.years[year]
	return items, ok, nil
}

func (m *memHolidayStore) SaveYear(_ context.Context, year int, items []Holiday) error {
	m.years[year] = items
	m.saved = append(m.saved, year)
	return nil
}

func TestStoreSourceReadThrough(t *testing.T) {
	store := &memHolidayStore{years: map[int][]Holiday{2024: {}}}
	remote := &countingSource{}
	src := &StoreSource{Store: store, Remote: remote, Logger: quietLogger()}

	items, err := src.Fetch(context.Background(), 2024)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(0), remote.calls.Load())

	items, err = src.Fetch(context.Background(), 2025)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, []int{2025}, store.saved)

	_, err = src.Fetch(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, int32(1), remote.calls.Load())
}

func TestStoreSourceFallsBackWhenStoreFails(t *testing.T) {
	store := &memHolidayStore{years: map[int][]Holiday{}, readErr: errors.New("db down")}
	src := &StoreSource{Store: store, Remote: &countingSource{}, Logger: quietLogger()}

	items, err := src.Fetch(context.Background(), 2025)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCacheFeedsClassifier(t *testing.T) {
	cache := NewCache(NewStaticSource([]Holiday{{Date: payroll.MustDate("2025-03-24")}}), nil, quietLogger())
	lookup, err := cache.Resolve(context.Background(), []int{2025})
	require.NoError(t, err)

	shift := payroll.ShiftInput{Date: payroll.MustDate("2025-03-24"), Start: payroll.MustClock("08:00"), End: payroll.MustClock("12:00")}
	hours, err := payroll.Classify(shift, lookup, payroll.DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, hours[payroll.SundayHolidayDay])
}
