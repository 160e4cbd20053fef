package holidays

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"nomina/internal/domain/payroll"
	"nomina/internal/platform/metrics"
)

// DefaultFetchTimeout bounds a shared fetch once it is detached from the
// caller that started it.
const DefaultFetchTimeout = 30 * time.Second

// Cache memoizes calendars by year. Concurrent misses for the same year share
// one fetch. Failed fetches are not cached so the next call retries.
type Cache struct {
	// FetchTimeout bounds each shared fetch. The fetch ignores cancellation of
	// the request that triggered it, so other waiters still get the result.
	FetchTimeout time.Duration

	source  Source
	metrics *metrics.Collector
	logger  *slog.Logger

	mu    sync.RWMutex
	years map[int]Calendar
	group singleflight.Group
}

func NewCache(source Source, collector *metrics.Collector, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		FetchTimeout: DefaultFetchTimeout,
		source:       source,
		metrics:      collector,
		logger:       logger,
		years:        map[int]Calendar{},
	}
}

// Get returns the calendar for a year, fetching it on a miss.
func (c *Cache) Get(ctx context.Context, year int) (Calendar, error) {
	if !ValidYear(year) {
		return Calendar{}, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	if cal, ok := c.cached(year); ok {
		return cal, nil
	}

	ch := c.group.DoChan(strconv.Itoa(year), func() (any, error) {
		if cal, ok := c.cached(year); ok {
			return cal, nil
		}
		timeout := c.FetchTimeout
		if timeout <= 0 {
			timeout = DefaultFetchTimeout
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		items, err := c.source.Fetch(fetchCtx, year)
		c.metrics.HolidayFetch(err)
		if err != nil {
			return nil, err
		}
		cal := NewCalendar(year, items)
		c.mu.Lock()
		c.years[year] = cal
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "holiday calendar loaded", "year", year, "holidays", cal.Len())
		return cal, nil
	})
	select {
	case <-ctx.Done():
		return Calendar{Year: year}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Calendar{Year: year}, res.Err
		}
		return res.Val.(Calendar), nil
	}
}

// Resolve builds a lookup covering every requested year. Years that cannot
// be fetched contribute an empty calendar and their errors are joined.
func (c *Cache) Resolve(ctx context.Context, years []int) (payroll.Holidays, error) {
	set := Set{}
	var errs []error
	for _, year := range years {
		cal, err := c.Get(ctx, year)
		if err != nil {
			errs = append(errs, fmt.Errorf("year %d: %w", year, err))
		}
		set[year] = cal
	}
	return set, errors.Join(errs...)
}

// Prefetch warms the cache and returns how many holidays each year holds.
func (c *Cache) Prefetch(ctx context.Context, years ...int) (map[int]int, error) {
	counts := map[int]int{}
	var errs []error
	for _, year := range years {
		cal, err := c.Get(ctx, year)
		if err != nil {
			errs = append(errs, fmt.Errorf("year %d: %w", year, err))
			continue
		}
		counts[year] = cal.Len()
	}
	return counts, errors.Join(errs...)
}

// Invalidate drops a cached year so the next lookup refetches it.
func (c *Cache) Invalidate(year int) {
	c.mu.Lock()
	delete(c.years, year)
	c.mu.Unlock()
}

func (c *Cache) cached(year int) (Calendar, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cal, ok := c.years[year]
	return cal, ok
}

var _ payroll.HolidayResolver = (*Cache)(nil)
