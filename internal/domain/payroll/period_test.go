package payroll

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuincenaFor(t *testing.T) {
	cases := []struct {
		date, start, end, label string
	}{
		{"2025-03-01", "2025-03-01", "2025-03-15", "2025-03 Q1"},
		{"2025-03-15", "2025-03-01", "2025-03-15", "2025-03 Q1"},
		{"2025-03-16", "2025-03-16", "2025-03-31", "2025-03 Q2"},
		{"2024-02-20", "2024-02-16", "2024-02-29", "2024-02 Q2"},
		{"2025-02-28", "2025-02-16", "2025-02-28", "2025-02 Q2"},
		{"2025-12-31", "2025-12-16", "2025-12-31", "2025-12 Q2"},
	}
	for _, tc := range cases {
		start, end := QuincenaFor(MustDate(tc.date))
		assert.Equal(t, tc.start, start.String(), tc.date)
		assert.Equal(t, tc.end, end.String(), tc.date)
		assert.Equal(t, tc.label, QuincenaLabel(start), tc.date)
	}
}

func TestPeriodValidate(t *testing.T) {
	p := Period{StartDate: MustDate("2025-03-16"), EndDate: MustDate("2025-03-31"), BaseSalary: dec("711750")}
	assert.NoError(t, p.Validate())

	p.EndDate = MustDate("2025-03-01")
	assert.True(t, errors.Is(p.Validate(), ErrInvalidPeriod))

	p.EndDate = MustDate("2025-03-31")
	p.BaseSalary = dec("-1")
	assert.True(t, errors.Is(p.Validate(), ErrInvalidPeriod))

	assert.True(t, errors.Is(Period{}.Validate(), ErrInvalidPeriod))
}

func TestCheckPlacement(t *testing.T) {
	p := Period{StartDate: MustDate("2025-03-01"), EndDate: MustDate("2025-03-15")}
	existing := []Entry{{ID: "a", Shift: newShift("2025-03-12", "08:00", "16:00", false)}}

	assert.NoError(t, CheckPlacement(p, existing, newShift("2025-03-13", "08:00", "16:00", false), ""))
	assert.NoError(t, CheckPlacement(p, existing, newShift("2025-03-15", "22:00", "06:00", true), ""))

	err := CheckPlacement(p, existing, newShift("2025-03-12", "18:00", "20:00", false), "")
	assert.True(t, errors.Is(err, ErrDuplicateShiftDate))

	assert.NoError(t, CheckPlacement(p, existing, newShift("2025-03-12", "18:00", "20:00", false), "a"))

	err = CheckPlacement(p, existing, newShift("2025-03-16", "08:00", "16:00", false), "")
	assert.True(t, errors.Is(err, ErrOutOfPeriodShift))
}

func TestYearsTouchedIncludesNextDay(t *testing.T) {
	entries := []Entry{
		{Shift: newShift("2025-12-20", "08:00", "16:00", false)},
		{Shift: newShift("2025-12-31", "22:00", "06:00", true)},
	}
	assert.Equal(t, []int{2025, 2026}, YearsTouched(entries))
	assert.Empty(t, YearsTouched(nil))
}
