package payroll

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Category is one of the eight pay buckets a worked hour can fall into.
type Category int

const (
	OrdinaryDay Category = iota
	NightSurcharge
	SundayHolidayDay
	SundayHolidayNight
	OvertimeDay
	OvertimeNight
	OvertimeSundayHolidayDay
	OvertimeSundayHolidayNight

	categoryCount
)

// Categories lists every category in display order.
var Categories = [categoryCount]Category{
	OrdinaryDay,
	NightSurcharge,
	SundayHolidayDay,
	SundayHolidayNight,
	OvertimeDay,
	OvertimeNight,
	OvertimeSundayHolidayDay,
	OvertimeSundayHolidayNight,
}

var categoryNames = [categoryCount]string{
	"ordinaryDay",
	"nightSurcharge",
	"sundayHolidayDay",
	"sundayHolidayNight",
	"overtimeDay",
	"overtimeNight",
	"overtimeSundayHolidayDay",
	"overtimeSundayHolidayNight",
}

var categoryCodes = [categoryCount]string{"HO", "RN", "RDF", "RNF", "HED", "HEN", "HEDDF", "HENDF"}

func (c Category) Valid() bool {
	return c >= 0 && c < categoryCount
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Code is the short payroll code printed on payslips (HED, RNF, ...).
func (c Category) Code() string {
	if !c.Valid() {
		return ""
	}
	return categoryCodes[c]
}

func (c Category) IsOvertime() bool {
	return c >= OvertimeDay && c < categoryCount
}

// Overtime maps a base bucket to its overtime counterpart. Overtime buckets map to themselves.
func (c Category) Overtime() Category {
	if c.IsOvertime() {
		return c
	}
	return c + OvertimeDay
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(categoryNames[c]), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory accepts either the JSON name (overtimeNight) or the payroll code (HEN).
func ParseCategory(value string) (Category, error) {
	for i := range categoryCount {
		if categoryNames[i] == value || categoryCodes[i] == value {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pay category %q", value)
}

func bucketFor(isNight, isSundayOrHoliday bool) Category {
	switch {
	case isNight && isSundayOrHoliday:
		return SundayHolidayNight
	case isSundayOrHoliday:
		return SundayHolidayDay
	case isNight:
		return NightSurcharge
	default:
		return OrdinaryDay
	}
}

// HourSet holds worked time per category. Every category is always present.
type HourSet [categoryCount]time.Duration

func (h HourSet) Get(c Category) time.Duration {
	if !c.Valid() {
		return 0
	}
	return h[c]
}

func (h HourSet) Total() time.Duration {
	var total time.Duration
	for _, d := range h {
		total += d
	}
	return total
}

// Overtime returns the time held in the four overtime buckets.
func (h HourSet) Overtime() time.Duration {
	var total time.Duration
	for _, c := range Categories {
		if c.IsOvertime() {
			total += h[c]
		}
	}
	return total
}

func (h HourSet) Add(other HourSet) HourSet {
	for i := range h {
		h[i] += other[i]
	}
	return h
}

// Hours reports a category as fractional hours.
func (h HourSet) Hours(c Category) float64 {
	return h.Get(c).Hours()
}

func (h HourSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, categoryCount)
	for _, c := range Categories {
		out[c.String()] = roundHours(h[c])
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a category -> hours object. Missing categories are zero.
func (h *HourSet) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	set, err := HourSetFromHours(raw)
	if err != nil {
		return err
	}
	*h = set
	return nil
}

// HourSetFromHours converts user-entered fractional hours. Values must be finite and non-negative.
func HourSetFromHours(raw map[string]float64) (HourSet, error) {
	var set HourSet
	for key, hours := range raw {
		c, err := ParseCategory(key)
		if err != nil {
			return HourSet{}, err
		}
		if math.IsNaN(hours) || math.IsInf(hours, 0) {
			return HourSet{}, &HoursError{Category: c, Reason: "must be a finite number"}
		}
		if hours < 0 {
			return HourSet{}, &HoursError{Category: c, Reason: "must not be negative"}
		}
		if hours > 24 {
			return HourSet{}, &HoursError{Category: c, Reason: "must not exceed 24 hours"}
		}
		set[c] = time.Duration(math.Round(hours * float64(time.Hour/time.Second))) * time.Second
	}
	return set, nil
}

func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*10000) / 10000
}

// Amounts holds money per category.
type Amounts [categoryCount]decimal.Decimal

func (a Amounts) Get(c Category) decimal.Decimal {
	if !c.Valid() {
		return decimal.Zero
	}
	return a[c]
}

// Extras sums every category except OrdinaryDay.
func (a Amounts) Extras() decimal.Decimal {
	total := decimal.Zero
	for _, c := range Categories {
		if c == OrdinaryDay {
			continue
		}
		total = total.Add(a[c])
	}
	return total
}

func (a Amounts) Add(other Amounts) Amounts {
	for i := range a {
		a[i] = a[i].Add(other[i])
	}
	return a
}

func (a Amounts) MarshalJSON() ([]byte, error) {
	out := make(map[string]decimal.Decimal, categoryCount)
	for _, c := range Categories {
		out[c.String()] = a[c]
	}
	return json.Marshal(out)
}
