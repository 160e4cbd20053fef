package payroll

import (
	"fmt"
	"time"
)

// QuincenaFor returns the half-month containing d: the 1st to the 15th, or
// the 16th to the last day of the month.
func QuincenaFor(d Date) (Date, Date) {
	if d.Day <= 15 {
		return NewDate(d.Year, d.Month, 1), NewDate(d.Year, d.Month, 15)
	}
	last := time.Date(d.Year, d.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return NewDate(d.Year, d.Month, 16), NewDate(d.Year, d.Month, last)
}

// QuincenaLabel names a half-month period, e.g. "2025-03 Q1".
func QuincenaLabel(start Date) string {
	half := 1
	if start.Day > 15 {
		half = 2
	}
	return fmt.Sprintf("%04d-%02d Q%d", start.Year, int(start.Month), half)
}

func (p Period) Contains(d Date) bool {
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}

func (p Period) Validate() error {
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidPeriod)
	}
	if p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidPeriod, p.EndDate, p.StartDate)
	}
	if p.BaseSalary.IsNegative() {
		return fmt.Errorf("%w: base salary must not be negative", ErrInvalidPeriod)
	}
	return nil
}

// CheckPlacement enforces the caller-level policies for adding a shift to a
// period: the date must fall inside it and no other entry may hold that date.
// ignoreID skips the entry being replaced.
func CheckPlacement(p Period, existing []Entry, shift ShiftInput, ignoreID string) error {
	if !p.Contains(shift.Date) {
		return fmt.Errorf("%w: %s not in %s..%s", ErrOutOfPeriodShift, shift.Date, p.StartDate, p.EndDate)
	}
	for _, e := range existing {
		if e.ID == ignoreID {
			continue
		}
		if e.Shift.Date == shift.Date {
			return fmt.Errorf("%w: %s", ErrDuplicateShiftDate, shift.Date)
		}
	}
	return nil
}

// YearsTouched lists the calendar years a set of shifts can fall on,
// including the day after each shift for overnight work.
func YearsTouched(entries []Entry) []int {
	seen := map[int]bool{}
	var years []int
	for _, e := range entries {
		for _, d := range []Date{e.Shift.Date, e.Shift.Date.AddDays(1)} {
			if !seen[d.Year] {
				seen[d.Year] = true
				years = append(years, d.Year)
			}
		}
	}
	return years
}
