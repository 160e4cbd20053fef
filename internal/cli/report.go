package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"nomina/internal/domain/payroll"
)

// PeriodFile is the offline input of the report command.
type PeriodFile struct {
	Period struct {
		Label            string           `json:"label"`
		StartDate        string           `json:"startDate"`
		EndDate          string           `json:"endDate"`
		BaseSalary       *decimal.Decimal `json:"baseSalary"`
		TransportEnabled *bool            `json:"transportEnabled"`
	} `json:"period"`
	Shifts []struct {
		shiftFields
		Override *struct {
			Hours payroll.HourSet `json:"hours"`
			Note  string          `json:"note"`
		} `json:"override"`
	} `json:"shifts"`
	Adjustments []struct {
		Kind        payroll.AdjustmentKind `json:"kind"`
		Amount      decimal.Decimal        `json:"amount"`
		Description string                 `json:"description"`
	} `json:"adjustments"`
}

type ReportCmd struct {
	File string `required:"" type:"existingfile" help:"Period JSON file with period, shifts and adjustments."`
	JSON bool   `name:"json" help:"Print the full report as JSON."`
	HolidayFlags
}

func (c *ReportCmd) Run(ctx *Context) error {
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	var file PeriodFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("period file %s: %w", c.File, err)
	}

	calendars, err := c.calendars(ctx)
	if err != nil {
		return err
	}
	svc, err := ctx.service(calendars)
	if err != nil {
		return err
	}
	report, err := buildReport(context.Background(), svc, file)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(ctx.Out, report)
	}
	return printReport(ctx, report)
}

// buildReport loads the file into the service and computes the period.
func buildReport(ctx context.Context, svc *payroll.Service, file PeriodFile) (payroll.PeriodReport, error) {
	in := payroll.PeriodInput{
		Label:            file.Period.Label,
		BaseSalary:       file.Period.BaseSalary,
		TransportEnabled: file.Period.TransportEnabled,
	}
	var err error
	if file.Period.StartDate != "" {
		if in.StartDate, err = payroll.ParseDate(file.Period.StartDate); err != nil {
			return payroll.PeriodReport{}, fmt.Errorf("period start: %w", err)
		}
	}
	if file.Period.EndDate != "" {
		if in.EndDate, err = payroll.ParseDate(file.Period.EndDate); err != nil {
			return payroll.PeriodReport{}, fmt.Errorf("period end: %w", err)
		}
	}
	period, err := svc.CreatePeriod(ctx, in)
	if err != nil {
		return payroll.PeriodReport{}, err
	}

	for i, item := range file.Shifts {
		shift, err := item.parse()
		if err != nil {
			return payroll.PeriodReport{}, fmt.Errorf("shift %d: %w", i+1, err)
		}
		entry, err := svc.AddShift(ctx, period.ID, shift)
		if err != nil {
			return payroll.PeriodReport{}, fmt.Errorf("shift %d (%s): %w", i+1, shift.Date, err)
		}
		if item.Override != nil {
			if _, err := svc.OverrideShift(ctx, period.ID, entry.ID, item.Override.Hours, item.Override.Note); err != nil {
				return payroll.PeriodReport{}, fmt.Errorf("shift %d override: %w", i+1, err)
			}
		}
	}
	for i, item := range file.Adjustments {
		if _, err := svc.AddAdjustment(ctx, period.ID, payroll.Adjustment{Kind: item.Kind, Amount: item.Amount, Description: item.Description}); err != nil {
			return payroll.PeriodReport{}, fmt.Errorf("adjustment %d: %w", i+1, err)
		}
	}
	return svc.Report(ctx, period.ID)
}

func printReport(ctx *Context, report payroll.PeriodReport) error {
	if report.HolidaysDegraded {
		fmt.Fprintln(ctx.Out, "warning: holiday calendar unavailable, only Sundays were treated as rest days")
	}
	fmt.Fprintf(ctx.Out, "%s (%s to %s)\n\n", report.Period.Label, report.Period.StartDate, report.Period.EndDate)

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSOURCE\tHOURS\tPAYMENT")
	for _, day := range report.Days {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", day.Date, day.Source, day.TotalHours.Hours(), day.TotalPayment.StringFixed(2))
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CODE\tCATEGORY\tHOURS\tPAYMENT")
	summary := report.Summary
	for _, cat := range payroll.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", cat.Code(), cat, summary.TotalHoursByCategory.Hours(cat), summary.TotalPaymentByCategory[cat].StringFixed(2))
	}
	fmt.Fprintln(tw)
	fin := report.Financials
	rows := []struct {
		label string
		value decimal.Decimal
	}{
		{"base salary", summary.BaseSalary},
		{"surcharges and overtime", summary.TotalSurchargeOvertimePay},
		{"transport allowance", fin.TransportAllowance},
		{"other income", fin.TotalOtherIncome},
		{"gross earnings", fin.GrossEarnings},
		{"contribution base", fin.ContributionBase},
		{"health", fin.HealthDeduction.Neg()},
		{"pension", fin.PensionDeduction.Neg()},
		{"other deductions", fin.TotalOtherDeductions.Neg()},
		{"net pay", fin.NetPay},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t\t\t%s\n", row.label, row.value.StringFixed(2))
	}
	return tw.Flush()
}
