package shared

import (
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"nomina/internal/domain/payroll"
	"nomina/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{issues: make([]ValidationIssue, 0, 4)}
}

func (v *Validator) Add(field, reason string) {
	if v == nil {
		return
	}
	field = strings.TrimSpace(field)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{
		Field:  field,
		Reason: reason,
	})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

func (v *Validator) Enum(field, value string, allowed []string, reason string) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return
	}
	for _, candidate := range allowed {
		if normalized == strings.ToLower(strings.TrimSpace(candidate)) {
			return
		}
	}
	v.Add(field, reason)
}

func (v *Validator) Date(field, raw string) (payroll.Date, bool) {
	parsed, err := ParseDate(raw)
	if err != nil || parsed.IsZero() {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return payroll.Date{}, false
	}
	return parsed, true
}

// OptionalDate is Date for fields that may be omitted.
func (v *Validator) OptionalDate(field, raw string) payroll.Date {
	if strings.TrimSpace(raw) == "" {
		return payroll.Date{}
	}
	d, _ := v.Date(field, raw)
	return d
}

func (v *Validator) Clock(field, raw string) (payroll.Clock, bool) {
	parsed, err := payroll.ParseClock(strings.TrimSpace(raw))
	if err != nil {
		v.Add(field, "must be a 24-hour time in HH:mm format")
		return payroll.Clock{}, false
	}
	return parsed, true
}

func (v *Validator) DateOrder(startField string, start payroll.Date, endField string, end payroll.Date) {
	if start.IsZero() || end.IsZero() {
		return
	}
	if end.Before(start) {
		v.Add(startField, "must be on or before "+endField)
		v.Add(endField, "must be on or after "+startField)
	}
}

// Amount validates a money value. Non-finite numbers are always rejected;
// positive additionally rejects zero and negatives.
func (v *Validator) Amount(field string, value float64, positive bool) decimal.Decimal {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		v.Add(field, "must be a finite number")
		return decimal.Zero
	}
	if positive && value <= 0 {
		v.Add(field, "must be greater than zero")
	} else if value < 0 {
		v.Add(field, "must not be negative")
	}
	return decimal.NewFromFloat(value)
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

func (v *Validator) Issues() []ValidationIssue {
	if v == nil || len(v.issues) == 0 {
		return nil
	}
	out := make([]ValidationIssue, len(v.issues))
	copy(out, v.issues)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	return out
}

func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(
		w,
		http.StatusBadRequest,
		api.CodeValidation,
		"payload validation failed",
		map[string]any{"fields": issues},
		requestID,
	)
}
