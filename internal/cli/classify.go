package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"nomina/internal/domain/payroll"
)

type ClassifyCmd struct {
	Date        string `required:"" help:"Shift date (YYYY-MM-DD)."`
	Start       string `required:"" help:"Start time (HH:mm)."`
	End         string `required:"" help:"End time (HH:mm)."`
	EndsNextDay bool   `help:"The shift ends on the following day."`
	BreakStart  string `help:"Unpaid break start (HH:mm)."`
	BreakEnd    string `help:"Unpaid break end (HH:mm)."`
	JSON        bool   `name:"json" help:"Print the result as JSON."`
	HolidayFlags
}

func (c *ClassifyCmd) Run(ctx *Context) error {
	shift, err := shiftFields{
		Date: c.Date, StartTime: c.Start, EndTime: c.End, EndsNextDay: c.EndsNextDay,
		BreakStart: c.BreakStart, BreakEnd: c.BreakEnd,
	}.parse()
	if err != nil {
		return err
	}
	calendars, err := c.calendars(ctx)
	if err != nil {
		return err
	}
	svc, err := ctx.service(calendars)
	if err != nil {
		return err
	}
	result, err := svc.Preview(context.Background(), shift)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(ctx.Out, result)
	}
	if result.HolidaysDegraded {
		fmt.Fprintln(ctx.Out, "warning: holiday calendar unavailable, only Sundays were treated as rest days")
	}
	return printDay(ctx, result.Day)
}

func printDay(ctx *Context, day payroll.DayPayroll) error {
	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", day.Date, day.Source)
	fmt.Fprintln(tw, "CODE\tCATEGORY\tHOURS\tPAYMENT")
	for _, cat := range payroll.Categories {
		if day.Hours[cat] == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", cat.Code(), cat, day.Hours.Hours(cat), day.Payments[cat].StringFixed(2))
	}
	fmt.Fprintf(tw, "\tTOTAL\t%.2f\t%s\n", day.TotalHours.Hours(), day.TotalPayment.StringFixed(2))
	return tw.Flush()
}
