package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var secondsPerHour = decimal.NewFromInt(int64(time.Hour / time.Second))

// ComputeDay prices a set of hours with the rate table. It is the only place
// payments are derived from hours, for computed and overridden days alike.
func ComputeDay(date Date, source EntrySource, hours HourSet, rates RateTable) DayPayroll {
	day := DayPayroll{
		Date:       date,
		Source:     source,
		Hours:      hours,
		TotalHours: hours.Total(),
	}
	for _, c := range Categories {
		day.Payments[c] = payment(hours[c], rates.Rate(c))
	}
	day.TotalPayment = day.Payments.Extras()
	return day
}

func payment(d time.Duration, rate decimal.Decimal) decimal.Decimal {
	if d == 0 || rate.IsZero() {
		return decimal.Zero
	}
	seconds := decimal.NewFromInt(int64(d / time.Second))
	return seconds.Mul(rate).Div(secondsPerHour).Round(2)
}

// Evaluate turns a stored entry into its day payroll: classified from the
// shift, or priced from the override hours when one is present.
func (e Engine) Evaluate(entry Entry, holidays Holidays) (DayPayroll, error) {
	var day DayPayroll
	if entry.Override != nil {
		day = ComputeDay(entry.Shift.Date, SourceOverridden, entry.Override.Hours, e.Rates)
	} else {
		hours, err := Classify(entry.Shift, holidays, e.Rules)
		if err != nil {
			return DayPayroll{}, err
		}
		worked, err := WorkedDuration(entry.Shift)
		if err != nil {
			return DayPayroll{}, err
		}
		if hours.Total() != worked {
			return DayPayroll{}, fmt.Errorf("%w: shift %s classified %s of %s worked", ErrInvariantViolation, entry.Shift.Date, hours.Total(), worked)
		}
		day = ComputeDay(entry.Shift.Date, SourceComputed, hours, e.Rates)
	}
	day.EntryID = entry.ID
	if !day.Payments[OrdinaryDay].IsZero() {
		return DayPayroll{}, fmt.Errorf("%w: ordinary hours priced on %s", ErrInvariantViolation, day.Date)
	}
	return day, nil
}

// Preview classifies and prices a single shift without storing it.
func (e Engine) Preview(shift ShiftInput, holidays Holidays) (DayPayroll, error) {
	return e.Evaluate(Entry{Shift: shift}, holidays)
}
