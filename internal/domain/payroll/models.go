package payroll

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type ShiftInput struct {
	Date         Date  `json:"date"`
	Start        Clock `json:"startTime"`
	End          Clock `json:"endTime"`
	EndsNextDay  bool  `json:"endsNextDay"`
	IncludeBreak bool  `json:"includeBreak"`
	BreakStart   Clock `json:"breakStart"`
	BreakEnd     Clock `json:"breakEnd"`
}

type EntrySource string

const (
	SourceComputed   EntrySource = "computed"
	SourceOverridden EntrySource = "overridden"
)

// Override replaces classifier output with hours entered by hand.
type Override struct {
	Hours    HourSet   `json:"hours"`
	Note     string    `json:"note,omitempty"`
	EditedAt time.Time `json:"editedAt"`
}

// Entry is one shift stored in a period. A nil Override means the day is
// computed from Shift; otherwise the override hours are authoritative.
type Entry struct {
	ID        string     `json:"id"`
	PeriodID  string     `json:"periodId"`
	Shift     ShiftInput `json:"shift"`
	Override  *Override  `json:"override,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (e Entry) Source() EntrySource {
	if e.Override != nil {
		return SourceOverridden
	}
	return SourceComputed
}

type DayPayroll struct {
	EntryID      string          `json:"entryId,omitempty"`
	Date         Date            `json:"date"`
	Source       EntrySource     `json:"source"`
	Hours        HourSet         `json:"hours"`
	Payments     Amounts         `json:"payments"`
	TotalPayment decimal.Decimal `json:"totalPayment"`
	TotalHours   time.Duration   `json:"-"`
}

func (d DayPayroll) MarshalJSON() ([]byte, error) {
	type alias DayPayroll
	return json.Marshal(struct {
		alias
		TotalHours float64 `json:"totalHours"`
	}{alias: alias(d), TotalHours: roundHours(d.TotalHours)})
}

type QuincenalSummary struct {
	TotalHoursByCategory      HourSet         `json:"totalHoursByCategory"`
	TotalPaymentByCategory    Amounts         `json:"totalPaymentByCategory"`
	TotalSurchargeOvertimePay decimal.Decimal `json:"totalSurchargeOvertimePay"`
	BaseSalary                decimal.Decimal `json:"baseSalary"`
	GrossBasePlusExtras       decimal.Decimal `json:"grossBasePlusExtras"`
	TotalWorkedHours          time.Duration   `json:"-"`
	DayCount                  int             `json:"dayCount"`
}

func (s QuincenalSummary) MarshalJSON() ([]byte, error) {
	type alias QuincenalSummary
	return json.Marshal(struct {
		alias
		TotalWorkedHours float64 `json:"totalWorkedHours"`
	}{alias: alias(s), TotalWorkedHours: roundHours(s.TotalWorkedHours)})
}

type AdjustmentKind string

const (
	AdjustmentIncome    AdjustmentKind = "income"
	AdjustmentDeduction AdjustmentKind = "deduction"
)

func (k AdjustmentKind) Valid() bool {
	return k == AdjustmentIncome || k == AdjustmentDeduction
}

type Adjustment struct {
	ID          string          `json:"id"`
	PeriodID    string          `json:"periodId,omitempty"`
	Kind        AdjustmentKind  `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type PeriodFinancials struct {
	TransportAllowance        decimal.Decimal `json:"transportAllowance"`
	TotalOtherIncome          decimal.Decimal `json:"totalOtherIncome"`
	TotalOtherDeductions      decimal.Decimal `json:"totalOtherDeductions"`
	GrossEarnings             decimal.Decimal `json:"grossEarnings"`
	ContributionBase          decimal.Decimal `json:"contributionBase"`
	HealthDeduction           decimal.Decimal `json:"healthDeduction"`
	PensionDeduction          decimal.Decimal `json:"pensionDeduction"`
	NetBeforeManualDeductions decimal.Decimal `json:"netBeforeManualDeductions"`
	NetPay                    decimal.Decimal `json:"netPay"`
}

type Period struct {
	ID               string          `json:"id"`
	Label            string          `json:"label"`
	StartDate        Date            `json:"startDate"`
	EndDate          Date            `json:"endDate"`
	BaseSalary       decimal.Decimal `json:"baseSalary"`
	TransportEnabled bool            `json:"transportEnabled"`
	CreatedAt        time.Time       `json:"createdAt"`
}

type PeriodReport struct {
	Period           Period           `json:"period"`
	Days             []DayPayroll     `json:"days"`
	Adjustments      []Adjustment     `json:"adjustments"`
	Summary          QuincenalSummary `json:"summary"`
	Financials       PeriodFinancials `json:"financials"`
	HolidaysDegraded bool             `json:"holidaysDegraded,omitempty"`
}
