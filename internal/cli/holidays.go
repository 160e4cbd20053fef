package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"
)

type HolidaysCmd struct {
	Year    int    `help:"Calendar year. Defaults to the current year."`
	Country string `help:"ISO country code. Defaults to HOLIDAY_COUNTRY."`
	JSON    bool   `name:"json" help:"Print the calendar as JSON."`
	HolidayFlags
}

func (c *HolidaysCmd) Run(ctx *Context) error {
	year := c.Year
	if year == 0 {
		year = time.Now().Year()
	}
	if c.Country != "" {
		ctx.Config.HolidayCountry = c.Country
	}
	calendars, err := c.calendars(ctx)
	if err != nil {
		return err
	}
	cal, err := calendars.Get(context.Background(), year)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(ctx.Out, cal.List())
	}
	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	for _, h := range cal.List() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.Date, h.Date.Weekday().String()[:3], h.LocalName, h.Name)
	}
	fmt.Fprintf(tw, "%d holidays in %d (%s)\n", cal.Len(), year, ctx.Config.HolidayCountry)
	return tw.Flush()
}
