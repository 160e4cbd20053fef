package shared

import (
	"strings"
	"time"

	"nomina/internal/domain/payroll"
)

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp, keeping only the
// calendar day. An empty value yields the zero date.
func ParseDate(value string) (payroll.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return payroll.Date{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return payroll.DateOf(parsed), nil
	}
	return payroll.ParseDate(value)
}
