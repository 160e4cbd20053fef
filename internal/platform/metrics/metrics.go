package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps process-wide counters. A nil *Collector is valid and
// records nothing.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	shiftsEvaluated      uint64
	shiftsRejected       uint64
	overridesApplied     uint64
	reportsBuilt         uint64
	holidayFetches       uint64
	holidayFetchFailures uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) ShiftEvaluated() {
	if c != nil {
		atomic.AddUint64(&c.shiftsEvaluated, 1)
	}
}

func (c *Collector) ShiftRejected() {
	if c != nil {
		atomic.AddUint64(&c.shiftsRejected, 1)
	}
}

func (c *Collector) OverrideApplied() {
	if c != nil {
		atomic.AddUint64(&c.overridesApplied, 1)
	}
}

func (c *Collector) ReportBuilt() {
	if c != nil {
		atomic.AddUint64(&c.reportsBuilt, 1)
	}
}

func (c *Collector) HolidayFetch(err error) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.holidayFetches, 1)
	if err != nil {
		atomic.AddUint64(&c.holidayFetchFailures, 1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	if c == nil {
		return map[string]any{}
	}
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":             total,
		"errorsTotal":               errs,
		"rateLimitedTotal":          limited,
		"avgDurationMs":             avg,
		"totalDurationMs":           totalMs,
		"shiftsEvaluatedTotal":      atomic.LoadUint64(&c.shiftsEvaluated),
		"shiftsRejectedTotal":       atomic.LoadUint64(&c.shiftsRejected),
		"overridesAppliedTotal":     atomic.LoadUint64(&c.overridesApplied),
		"reportsBuiltTotal":         atomic.LoadUint64(&c.reportsBuilt),
		"holidayFetchesTotal":       atomic.LoadUint64(&c.holidayFetches),
		"holidayFetchFailuresTotal": atomic.LoadUint64(&c.holidayFetchFailures),
	}
}
