package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"nomina/internal/platform/metrics"
)

// HolidayResolver builds a lookup covering the given years. On failure it
// may still return a usable (possibly empty) lookup next to the error.
type HolidayResolver interface {
	Resolve(ctx context.Context, years []int) (Holidays, error)
}

type Service struct {
	Store             StoreAPI
	Holidays          HolidayResolver
	Engine            Engine
	DefaultBaseSalary decimal.Decimal
	Metrics           *metrics.Collector
	Logger            *slog.Logger
	Now               func() time.Time
}

func NewService(store StoreAPI, holidays HolidayResolver, engine Engine, defaultBaseSalary decimal.Decimal, collector *metrics.Collector, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Store:             store,
		Holidays:          holidays,
		Engine:            engine,
		DefaultBaseSalary: defaultBaseSalary,
		Metrics:           collector,
		Logger:            logger,
		Now:               time.Now,
	}
}

// PeriodInput creates a period. With no start and end dates the period is
// the quincena containing Anchor.
type PeriodInput struct {
	Label            string
	StartDate        Date
	EndDate          Date
	Anchor           Date
	BaseSalary       *decimal.Decimal
	TransportEnabled *bool
}

type PeriodPatch struct {
	Label            *string
	BaseSalary       *decimal.Decimal
	TransportEnabled *bool
}

func (s *Service) CreatePeriod(ctx context.Context, in PeriodInput) (Period, error) {
	period := Period{
		Label:            strings.TrimSpace(in.Label),
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		BaseSalary:       s.DefaultBaseSalary,
		TransportEnabled: true,
	}
	if period.StartDate.IsZero() && period.EndDate.IsZero() {
		anchor := in.Anchor
		if anchor.IsZero() {
			anchor = DateOf(s.Now())
		}
		period.StartDate, period.EndDate = QuincenaFor(anchor)
	}
	if in.BaseSalary != nil {
		period.BaseSalary = *in.BaseSalary
	}
	if in.TransportEnabled != nil {
		period.TransportEnabled = *in.TransportEnabled
	}
	if period.Label == "" && !period.StartDate.IsZero() {
		period.Label = QuincenaLabel(period.StartDate)
	}
	if err := period.Validate(); err != nil {
		return Period{}, err
	}
	return s.Store.CreatePeriod(ctx, period)
}

func (s *Service) GetPeriod(ctx context.Context, periodID string) (Period, error) {
	return s.Store.GetPeriod(ctx, periodID)
}

func (s *Service) ListPeriods(ctx context.Context, limit, offset int) ([]Period, int, error) {
	return s.Store.ListPeriods(ctx, limit, offset)
}

func (s *Service) UpdatePeriod(ctx context.Context, periodID string, patch PeriodPatch) (Period, error) {
	period, err := s.Store.GetPeriod(ctx, periodID)
	if err != nil {
		return Period{}, err
	}
	if patch.Label != nil {
		period.Label = strings.TrimSpace(*patch.Label)
	}
	if patch.BaseSalary != nil {
		period.BaseSalary = *patch.BaseSalary
	}
	if patch.TransportEnabled != nil {
		period.TransportEnabled = *patch.TransportEnabled
	}
	if err := period.Validate(); err != nil {
		return Period{}, err
	}
	if err := s.Store.UpdatePeriod(ctx, period); err != nil {
		return Period{}, err
	}
	return period, nil
}

func (s *Service) DeletePeriod(ctx context.Context, periodID string) error {
	return s.Store.DeletePeriod(ctx, periodID)
}

func (s *Service) ListShifts(ctx context.Context, periodID string) ([]Entry, error) {
	if _, err := s.Store.GetPeriod(ctx, periodID); err != nil {
		return nil, err
	}
	return s.Store.ListEntries(ctx, periodID)
}

func (s *Service) AddShift(ctx context.Context, periodID string, shift ShiftInput) (Entry, error) {
	if err := s.placeShift(ctx, periodID, shift, ""); err != nil {
		return Entry{}, err
	}
	return s.Store.CreateEntry(ctx, Entry{PeriodID: periodID, Shift: shift})
}

// ReplaceShift stores a new shift for an existing entry. Any override on the
// entry is discarded.
func (s *Service) ReplaceShift(ctx context.Context, periodID, entryID string, shift ShiftInput) (Entry, error) {
	if _, err := s.Store.GetEntry(ctx, periodID, entryID); err != nil {
		return Entry{}, err
	}
	if err := s.placeShift(ctx, periodID, shift, entryID); err != nil {
		return Entry{}, err
	}
	return s.Store.ReplaceShift(ctx, periodID, entryID, shift)
}

func (s *Service) placeShift(ctx context.Context, periodID string, shift ShiftInput, ignoreID string) error {
	if err := ValidateShift(shift); err != nil {
		s.Metrics.ShiftRejected()
		return err
	}
	period, err := s.Store.GetPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	existing, err := s.Store.ListEntries(ctx, periodID)
	if err != nil {
		return err
	}
	if err := CheckPlacement(period, existing, shift, ignoreID); err != nil {
		s.Metrics.ShiftRejected()
		return err
	}
	return nil
}

// OverrideShift replaces the classified hours of an entry with hours entered
// by hand. The shift itself is kept so the override can be cleared later.
func (s *Service) OverrideShift(ctx context.Context, periodID, entryID string, hours HourSet, note string) (Entry, error) {
	for _, c := range Categories {
		if hours[c] < 0 {
			return Entry{}, &HoursError{Category: c, Reason: "must not be negative"}
		}
		if hours[c] > 24*time.Hour {
			return Entry{}, &HoursError{Category: c, Reason: "must not exceed 24 hours"}
		}
	}
	override := &Override{Hours: hours, Note: strings.TrimSpace(note), EditedAt: s.Now().UTC()}
	entry, err := s.Store.SetOverride(ctx, periodID, entryID, override)
	if err != nil {
		return Entry{}, err
	}
	s.Metrics.OverrideApplied()
	s.Logger.InfoContext(ctx, "shift hours overridden", "period_id", periodID, "entry_id", entryID, "date", entry.Shift.Date.String())
	return entry, nil
}

func (s *Service) ClearOverride(ctx context.Context, periodID, entryID string) (Entry, error) {
	return s.Store.SetOverride(ctx, periodID, entryID, nil)
}

func (s *Service) DeleteShift(ctx context.Context, periodID, entryID string) error {
	return s.Store.DeleteEntry(ctx, periodID, entryID)
}

func (s *Service) AddAdjustment(ctx context.Context, periodID string, adj Adjustment) (Adjustment, error) {
	adj.PeriodID = periodID
	adj.Description = strings.TrimSpace(adj.Description)
	if err := ValidateAdjustment(adj); err != nil {
		return Adjustment{}, err
	}
	if _, err := s.Store.GetPeriod(ctx, periodID); err != nil {
		return Adjustment{}, err
	}
	return s.Store.CreateAdjustment(ctx, adj)
}

func (s *Service) DeleteAdjustment(ctx context.Context, periodID, adjustmentID string) error {
	return s.Store.DeleteAdjustment(ctx, periodID, adjustmentID)
}

// Report recomputes the whole period from its stored shifts. Nothing derived
// is persisted, so the report always reflects the current rate table.
func (s *Service) Report(ctx context.Context, periodID string) (PeriodReport, error) {
	period, err := s.Store.GetPeriod(ctx, periodID)
	if err != nil {
		return PeriodReport{}, err
	}
	entries, err := s.Store.ListEntries(ctx, periodID)
	if err != nil {
		return PeriodReport{}, err
	}
	adjustments, err := s.Store.ListAdjustments(ctx, periodID)
	if err != nil {
		return PeriodReport{}, err
	}

	holidays, degraded := s.resolveHolidays(ctx, YearsTouched(entries))
	days, err := s.evaluateAll(ctx, entries, holidays)
	if err != nil {
		return PeriodReport{}, err
	}

	summary := Summarize(days, period.BaseSalary)
	report := PeriodReport{
		Period:           period,
		Days:             days,
		Adjustments:      adjustments,
		Summary:          summary,
		Financials:       ComputeFinancials(summary, period.TransportEnabled, SplitAdjustments(adjustments), s.Engine.Statutory),
		HolidaysDegraded: degraded,
	}
	if report.Days == nil {
		report.Days = []DayPayroll{}
	}
	if report.Adjustments == nil {
		report.Adjustments = []Adjustment{}
	}
	s.Metrics.ReportBuilt()
	return report, nil
}

// PreviewResult is a single priced shift plus whether holidays were unavailable.
type PreviewResult struct {
	Day              DayPayroll `json:"day"`
	HolidaysDegraded bool       `json:"holidaysDegraded,omitempty"`
}

func (s *Service) Preview(ctx context.Context, shift ShiftInput) (PreviewResult, error) {
	if err := ValidateShift(shift); err != nil {
		s.Metrics.ShiftRejected()
		return PreviewResult{}, err
	}
	holidays, degraded := s.resolveHolidays(ctx, YearsTouched([]Entry{{Shift: shift}}))
	day, err := s.Engine.Preview(shift, holidays)
	if err != nil {
		s.logInvariant(ctx, err, shift.Date)
		return PreviewResult{}, err
	}
	s.Metrics.ShiftEvaluated()
	return PreviewResult{Day: day, HolidaysDegraded: degraded}, nil
}

// evaluateAll prices every entry concurrently. Each day is independent and
// the holiday lookup is read-only, so order of completion does not matter.
func (s *Service) evaluateAll(ctx context.Context, entries []Entry, holidays Holidays) ([]DayPayroll, error) {
	days := make([]DayPayroll, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			day, err := s.Engine.Evaluate(entry, holidays)
			if err != nil {
				s.logInvariant(gctx, err, entry.Shift.Date)
				return fmt.Errorf("entry %s: %w", entry.ID, err)
			}
			s.Metrics.ShiftEvaluated()
			days[i] = day
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return days, nil
}

func (s *Service) resolveHolidays(ctx context.Context, years []int) (Holidays, bool) {
	if s.Holidays == nil || len(years) == 0 {
		return NoHolidays{}, false
	}
	holidays, err := s.Holidays.Resolve(ctx, years)
	if holidays == nil {
		holidays = NoHolidays{}
	}
	if err != nil {
		s.Logger.WarnContext(ctx, "holiday calendar unavailable, classifying with Sundays only", "years", years, "error", err)
		return holidays, true
	}
	return holidays, false
}

func (s *Service) logInvariant(ctx context.Context, err error, date Date) {
	if errors.Is(err, ErrInvariantViolation) {
		s.Logger.ErrorContext(ctx, "payroll invariant violated", "date", date.String(), "error", err)
	}
}
