package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidShift       = errors.New("invalid shift")
	ErrInvalidAdjustment  = errors.New("invalid adjustment")
	ErrInvalidHours       = errors.New("invalid override hours")
	ErrInvalidPeriod      = errors.New("invalid pay period")
	ErrInvalidRates       = errors.New("invalid rate table")
	ErrDuplicateShiftDate = errors.New("a shift already exists for this date")
	ErrOutOfPeriodShift   = errors.New("shift date falls outside the pay period")
	ErrPeriodNotFound     = errors.New("pay period not found")
	ErrShiftNotFound      = errors.New("shift not found")
	ErrAdjustmentNotFound = errors.New("adjustment not found")
	ErrInvariantViolation = errors.New("payroll invariant violated")
)

// ShiftError reports which field made a shift structurally impossible.
type ShiftError struct {
	Field  string
	Reason string
}

func (e *ShiftError) Error() string {
	return fmt.Sprintf("invalid shift: %s %s", e.Field, e.Reason)
}

func (e *ShiftError) Unwrap() error { return ErrInvalidShift }

type AdjustmentError struct {
	Field  string
	Reason string
}

func (e *AdjustmentError) Error() string {
	return fmt.Sprintf("invalid adjustment: %s %s", e.Field, e.Reason)
}

func (e *AdjustmentError) Unwrap() error { return ErrInvalidAdjustment }

type HoursError struct {
	Category Category
	Reason   string
}

func (e *HoursError) Error() string {
	return fmt.Sprintf("invalid hours for %s: %s", e.Category, e.Reason)
}

func (e *HoursError) Unwrap() error { return ErrInvalidHours }

func shiftErr(field, reason string) error {
	return &ShiftError{Field: field, Reason: reason}
}
