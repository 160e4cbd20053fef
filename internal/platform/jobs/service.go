package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

const (
	JobHolidayPrefetch = "holiday_prefetch"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Prefetcher warms holiday calendars; *holidays.Cache satisfies it.
type Prefetcher interface {
	Prefetch(ctx context.Context, years ...int) (map[int]int, error)
}

type Service struct {
	Runs     RunRecorder
	Holidays Prefetcher
	Interval time.Duration
	Now      func() time.Time
	queue    chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(runs RunRecorder, holidays Prefetcher, interval time.Duration) *Service {
	return &Service{
		Runs:     runs,
		Holidays: holidays,
		Interval: interval,
		Now:      time.Now,
		queue:    make(chan job, 128),
	}
}

// Start runs the worker and queues one prefetch immediately, then one per Interval.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Holidays == nil {
		return
	}
	s.Enqueue(JobHolidayPrefetch, s.PrefetchHolidays)
	if s.Interval > 0 {
		go s.scheduleHolidayPrefetch(ctx, s.Interval)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// PrefetchHolidays loads the calendars of the current and the next year so
// that December night shifts crossing into January classify correctly.
func (s *Service) PrefetchHolidays(ctx context.Context) (any, error) {
	year := s.Now().Year()
	counts, err := s.Holidays.Prefetch(ctx, year, year+1)
	return map[string]any{"holidays": counts}, err
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.Runs != nil {
		id, err := s.Runs.StartRun(ctx, j.Type)
		if err != nil {
			slog.Warn("job run insert failed", "err", err)
		}
		runID = id
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]any{"error": err.Error(), "details": details}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.Runs.FinishRun(ctx, runID, status, detailsJSON); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	slog.Info("job finished", "jobType", j.Type, "status", status)
	return details, err
}

func (s *Service) scheduleHolidayPrefetch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobHolidayPrefetch, s.PrefetchHolidays)
		}
	}
}
