package payroll

import (
	"sort"
	"time"
)

// Holidays is the read-only holiday lookup the classifier consults.
type Holidays interface {
	IsHoliday(year int, month time.Month, day int) bool
}

// NoHolidays recognizes only Sundays. Used when a calendar is unavailable.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(int, time.Month, int) bool { return false }

// span is a half-open interval of minutes measured from 00:00 of the shift date.
type span struct {
	start, end int
}

func (s span) minutes() int { return s.end - s.start }

// piece is an atomic stretch with a single classification.
type piece struct {
	span
	bucket Category
}

// Classify splits a shift into hours per pay category.
func Classify(shift ShiftInput, holidays Holidays, rules Rules) (HourSet, error) {
	pieces, err := classifyPieces(shift, holidays, rules)
	if err != nil {
		return HourSet{}, err
	}

	var worked int
	for _, p := range pieces {
		worked += p.minutes()
	}
	var minutes [categoryCount]int
	for _, p := range pieces {
		minutes[p.bucket] += p.minutes()
	}

	// Overtime is the tail of the shift: walk back from the last worked minute.
	excess := worked - int(rules.OrdinaryDailyHours/time.Minute)
	for i := len(pieces) - 1; i >= 0 && excess > 0; i-- {
		moved := min(excess, pieces[i].minutes())
		minutes[pieces[i].bucket] -= moved
		minutes[pieces[i].bucket.Overtime()] += moved
		excess -= moved
	}

	var hours HourSet
	for c, m := range minutes {
		hours[c] = time.Duration(m) * time.Minute
	}
	return hours, nil
}

// WorkedDuration validates the shift and returns its length minus the break.
func WorkedDuration(shift ShiftInput) (time.Duration, error) {
	parts, err := resolve(shift)
	if err != nil {
		return 0, err
	}
	var total int
	for _, p := range parts {
		total += p.minutes()
	}
	return time.Duration(total) * time.Minute, nil
}

// ValidateShift reports the first structural problem with a shift.
func ValidateShift(shift ShiftInput) error {
	_, err := resolve(shift)
	return err
}

func classifyPieces(shift ShiftInput, holidays Holidays, rules Rules) ([]piece, error) {
	if holidays == nil {
		holidays = NoHolidays{}
	}
	parts, err := resolve(shift)
	if err != nil {
		return nil, err
	}

	boundaries := dayBoundaries(rules)
	var pieces []piece
	for _, part := range parts {
		cuts := []int{part.start, part.end}
		for day := part.start / minutesPerDay; day <= part.end/minutesPerDay; day++ {
			for _, b := range boundaries {
				at := day*minutesPerDay + b
				if at > part.start && at < part.end {
					cuts = append(cuts, at)
				}
			}
		}
		sort.Ints(cuts)

		for i := 0; i+1 < len(cuts); i++ {
			if cuts[i] == cuts[i+1] {
				continue
			}
			s := span{start: cuts[i], end: cuts[i+1]}
			day := shift.Date.AddDays(s.start / minutesPerDay)
			night := rules.isNight(s.start % minutesPerDay)
			special := day.Weekday() == time.Sunday || holidays.IsHoliday(day.Year, day.Month, day.Day)
			pieces = append(pieces, piece{span: s, bucket: bucketFor(night, special)})
		}
	}
	return pieces, nil
}

// dayBoundaries are the minute offsets within a day where classification can change.
func dayBoundaries(rules Rules) []int {
	return []int{0, rules.DayStart.Minutes(), rules.NightStart.Minutes()}
}

// resolve anchors the shift on a single timeline and removes the break,
// returning the worked intervals in chronological order.
func resolve(shift ShiftInput) ([]span, error) {
	if shift.Date.IsZero() {
		return nil, shiftErr("date", "is required")
	}

	start := shift.Start.Minutes()
	end := shift.End.Minutes()
	if shift.EndsNextDay {
		if shift.Start.Before(shift.End) {
			return nil, shiftErr("endsNextDay", "is set but the end time is after the start time")
		}
		end += minutesPerDay
	} else if !shift.Start.Before(shift.End) {
		return nil, shiftErr("endTime", "must be after the start time unless the shift ends the next day")
	}
	whole := span{start: start, end: end}

	if !shift.IncludeBreak {
		return []span{whole}, nil
	}

	if shift.BreakStart == shift.BreakEnd {
		return nil, shiftErr("breakEnd", "must be after the break start")
	}
	// A same-day shift cannot hold a break that wraps past midnight.
	if !shift.EndsNextDay && shift.BreakEnd.Before(shift.BreakStart) {
		return nil, shiftErr("breakEnd", "must be after the break start")
	}
	breakStart := shift.BreakStart.Minutes()
	if breakStart < start {
		breakStart += minutesPerDay
	}
	breakEnd := breakStart - shift.BreakStart.Minutes() + shift.BreakEnd.Minutes()
	if breakEnd <= breakStart {
		breakEnd += minutesPerDay
	}
	if breakStart < whole.start || breakEnd > whole.end {
		return nil, shiftErr("break", "must fall within the shift")
	}

	var parts []span
	if breakStart > whole.start {
		parts = append(parts, span{start: whole.start, end: breakStart})
	}
	if breakEnd < whole.end {
		parts = append(parts, span{start: breakEnd, end: whole.end})
	}
	if len(parts) == 0 {
		return nil, shiftErr("break", "leaves no worked time")
	}
	return parts, nil
}
