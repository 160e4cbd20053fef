package holidays

import (
	"errors"
	"sort"
	"time"

	"nomina/internal/domain/payroll"
)

var (
	ErrInvalidYear = errors.New("year out of range")
	ErrUpstream    = errors.New("holiday provider failed")
)

const (
	MinYear = 1900
	MaxYear = 2200
)

// Holiday is a public holiday as published by the provider.
type Holiday struct {
	Date      payroll.Date `json:"date"`
	LocalName string       `json:"localName"`
	Name      string       `json:"name"`
}

func ValidYear(year int) bool {
	return year >= MinYear && year <= MaxYear
}

// Calendar is the immutable set of holidays for one year.
type Calendar struct {
	Year int
	days map[payroll.Date]Holiday
}

// NewCalendar keeps only the holidays that belong to year.
func NewCalendar(year int, items []Holiday) Calendar {
	cal := Calendar{Year: year, days: make(map[payroll.Date]Holiday, len(items))}
	for _, h := range items {
		if h.Date.Year != year {
			continue
		}
		cal.days[h.Date] = h
	}
	return cal
}

func (c Calendar) Contains(d payroll.Date) bool {
	_, ok := c.days[d]
	return ok
}

func (c Calendar) Len() int {
	return len(c.days)
}

// List returns the holidays in date order.
func (c Calendar) List() []Holiday {
	out := make([]Holiday, 0, len(c.days))
	for _, h := range c.days {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Set joins calendars of several years into one lookup for the classifier.
type Set map[int]Calendar

func NewSet(calendars ...Calendar) Set {
	s := make(Set, len(calendars))
	for _, c := range calendars {
		s[c.Year] = c
	}
	return s
}

func (s Set) IsHoliday(year int, month time.Month, day int) bool {
	cal, ok := s[year]
	if !ok {
		return false
	}
	return cal.Contains(payroll.NewDate(year, month, day))
}

var _ payroll.Holidays = Set{}
