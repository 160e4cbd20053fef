package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Rules are the configurable legal boundaries used by the classifier.
type Rules struct {
	// DayStart..NightStart is daytime; the complement wraps past midnight.
	DayStart           Clock
	NightStart         Clock
	OrdinaryDailyHours time.Duration
}

func DefaultRules() Rules {
	return Rules{
		DayStart:           MustClock("06:00"),
		NightStart:         MustClock("21:00"),
		OrdinaryDailyHours: 8 * time.Hour,
	}
}

func (r Rules) Validate() error {
	if !r.DayStart.Before(r.NightStart) {
		return fmt.Errorf("day start %s must be before night start %s", r.DayStart, r.NightStart)
	}
	if r.OrdinaryDailyHours <= 0 || r.OrdinaryDailyHours > 24*time.Hour {
		return fmt.Errorf("ordinary daily hours %s out of range", r.OrdinaryDailyHours)
	}
	return nil
}

func (r Rules) isNight(minuteOfDay int) bool {
	return minuteOfDay < r.DayStart.Minutes() || minuteOfDay >= r.NightStart.Minutes()
}

// RateTable maps categories to a peso-per-hour rate. OrdinaryDay is covered
// by the base salary and always rates zero.
type RateTable struct {
	rates [categoryCount]decimal.Decimal
}

// NewRateTable requires a positive rate for every category except OrdinaryDay.
// An OrdinaryDay entry, if present, must be zero.
func NewRateTable(rates map[Category]decimal.Decimal) (RateTable, error) {
	var table RateTable
	for c, rate := range rates {
		if !c.Valid() {
			return RateTable{}, fmt.Errorf("%w: unknown category %d", ErrInvalidRates, int(c))
		}
		if c == OrdinaryDay {
			if !rate.IsZero() {
				return RateTable{}, fmt.Errorf("%w: %s is paid by the base salary and must rate 0", ErrInvalidRates, c)
			}
			continue
		}
		table.rates[c] = rate
	}
	for _, c := range Categories {
		if c == OrdinaryDay {
			continue
		}
		if !table.rates[c].IsPositive() {
			return RateTable{}, fmt.Errorf("%w: %s needs a positive rate", ErrInvalidRates, c)
		}
	}
	return table, nil
}

// DefaultRateTable prices each category from the legal hourly wage
// (1,423,500 / 230) times its surcharge multiplier, rounded to cents.
func DefaultRateTable() RateTable {
	table, err := NewRateTable(map[Category]decimal.Decimal{
		NightSurcharge:             decimal.RequireFromString("2166.20"),
		SundayHolidayDay:           decimal.RequireFromString("4641.85"),
		SundayHolidayNight:         decimal.RequireFromString("6808.04"),
		OvertimeDay:                decimal.RequireFromString("7736.41"),
		OvertimeNight:              decimal.RequireFromString("10830.98"),
		OvertimeSundayHolidayDay:   decimal.RequireFromString("12378.26"),
		OvertimeSundayHolidayNight: decimal.RequireFromString("15472.83"),
	})
	if err != nil {
		panic(err)
	}
	return table
}

// DefaultEngine uses the default rules, rates and statutory values.
func DefaultEngine() Engine {
	return Engine{Rules: DefaultRules(), Rates: DefaultRateTable(), Statutory: DefaultStatutory()}
}

func (t RateTable) Rate(c Category) decimal.Decimal {
	if c == OrdinaryDay || !c.Valid() {
		return decimal.Zero
	}
	return t.rates[c]
}

func (t RateTable) MarshalJSON() ([]byte, error) {
	var a Amounts
	for _, c := range Categories {
		a[c] = t.Rate(c)
	}
	return a.MarshalJSON()
}

// Statutory holds the deduction rates and the transport allowance amount.
type Statutory struct {
	HealthRate         decimal.Decimal
	PensionRate        decimal.Decimal
	TransportAllowance decimal.Decimal
}

func DefaultStatutory() Statutory {
	return Statutory{
		HealthRate:         decimal.RequireFromString("0.04"),
		PensionRate:        decimal.RequireFromString("0.04"),
		TransportAllowance: decimal.NewFromInt(100000),
	}
}

func (s Statutory) Validate() error {
	one := decimal.NewFromInt(1)
	if s.HealthRate.IsNegative() || s.HealthRate.GreaterThanOrEqual(one) {
		return fmt.Errorf("health rate %s must be in [0,1)", s.HealthRate)
	}
	if s.PensionRate.IsNegative() || s.PensionRate.GreaterThanOrEqual(one) {
		return fmt.Errorf("pension rate %s must be in [0,1)", s.PensionRate)
	}
	if s.HealthRate.Add(s.PensionRate).GreaterThanOrEqual(one) {
		return fmt.Errorf("health and pension rates together must stay below 1")
	}
	if s.TransportAllowance.IsNegative() {
		return fmt.Errorf("transport allowance must not be negative")
	}
	return nil
}

// Engine bundles the configuration every computation needs.
type Engine struct {
	Rules     Rules
	Rates     RateTable
	Statutory Statutory
}

func NewEngine(rules Rules, rates RateTable, statutory Statutory) (Engine, error) {
	if err := rules.Validate(); err != nil {
		return Engine{}, err
	}
	if err := statutory.Validate(); err != nil {
		return Engine{}, err
	}
	return Engine{Rules: rules, Rates: rates, Statutory: statutory}, nil
}
