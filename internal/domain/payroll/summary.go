package payroll

import (
	"math"

	"github.com/shopspring/decimal"
)

// Summarize folds the days of a period. Every accumulator is an exact sum,
// so the result does not depend on the order of days.
func Summarize(days []DayPayroll, baseSalary decimal.Decimal) QuincenalSummary {
	summary := QuincenalSummary{
		BaseSalary:                baseSalary,
		TotalSurchargeOvertimePay: decimal.Zero,
		DayCount:                  len(days),
	}
	for _, day := range days {
		summary.TotalHoursByCategory = summary.TotalHoursByCategory.Add(day.Hours)
		summary.TotalPaymentByCategory = summary.TotalPaymentByCategory.Add(day.Payments)
		summary.TotalSurchargeOvertimePay = summary.TotalSurchargeOvertimePay.Add(day.TotalPayment)
		summary.TotalWorkedHours += day.TotalHours
	}
	summary.GrossBasePlusExtras = baseSalary.Add(summary.TotalSurchargeOvertimePay)
	return summary
}

// Adjustments groups the manual line items of a period.
type Adjustments struct {
	Income     []Adjustment
	Deductions []Adjustment
}

// SplitAdjustments sorts a mixed list into income and deductions.
func SplitAdjustments(items []Adjustment) Adjustments {
	var out Adjustments
	for _, item := range items {
		switch item.Kind {
		case AdjustmentIncome:
			out.Income = append(out.Income, item)
		case AdjustmentDeduction:
			out.Deductions = append(out.Deductions, item)
		}
	}
	return out
}

// ComputeFinancials is the single net-pay formula. The transport allowance
// never enters the contribution base.
func ComputeFinancials(summary QuincenalSummary, transportEnabled bool, adjustments Adjustments, statutory Statutory) PeriodFinancials {
	var fin PeriodFinancials
	fin.TransportAllowance = decimal.Zero
	if transportEnabled {
		fin.TransportAllowance = statutory.TransportAllowance
	}
	fin.TotalOtherIncome = sumAmounts(adjustments.Income)
	fin.TotalOtherDeductions = sumAmounts(adjustments.Deductions)

	fin.GrossEarnings = summary.GrossBasePlusExtras.Add(fin.TransportAllowance).Add(fin.TotalOtherIncome)
	fin.ContributionBase = summary.GrossBasePlusExtras.Add(fin.TotalOtherIncome)
	fin.HealthDeduction = fin.ContributionBase.Mul(statutory.HealthRate)
	fin.PensionDeduction = fin.ContributionBase.Mul(statutory.PensionRate)
	fin.NetBeforeManualDeductions = fin.GrossEarnings.Sub(fin.HealthDeduction).Sub(fin.PensionDeduction)
	fin.NetPay = fin.NetBeforeManualDeductions.Sub(fin.TotalOtherDeductions)
	return fin
}

func sumAmounts(items []Adjustment) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

// ValidateAdjustment is the boundary check run before an adjustment is accepted.
func ValidateAdjustment(adj Adjustment) error {
	if !adj.Kind.Valid() {
		return &AdjustmentError{Field: "kind", Reason: "must be income or deduction"}
	}
	if !adj.Amount.IsPositive() {
		return &AdjustmentError{Field: "amount", Reason: "must be greater than zero"}
	}
	return nil
}

// AmountFromFloat converts a user-entered amount, rejecting NaN and infinities.
func AmountFromFloat(value float64) (decimal.Decimal, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Zero, &AdjustmentError{Field: "amount", Reason: "must be a finite number"}
	}
	return decimal.NewFromFloat(value), nil
}
