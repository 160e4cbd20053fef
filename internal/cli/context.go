package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"nomina/internal/domain/holidays"
	"nomina/internal/domain/payroll"
	"nomina/internal/platform/config"
	"nomina/internal/platform/metrics"
)

// Context is handed to every command's Run method.
type Context struct {
	Config config.Config
	Out    io.Writer
	Logger *slog.Logger
}

// HolidayFlags choose where calendars come from for offline commands.
type HolidayFlags struct {
	HolidaysFile string `name:"holidays" help:"JSON file with holidays ([{\"date\":\"YYYY-MM-DD\",\"localName\":...}]). Overrides the remote calendar." type:"existingfile"`
	Offline      bool   `help:"Classify with Sundays only, without fetching holidays."`
}

func (f HolidayFlags) calendars(ctx *Context) (*holidays.Cache, error) {
	var source holidays.Source
	switch {
	case f.HolidaysFile != "":
		items, err := readHolidays(f.HolidaysFile)
		if err != nil {
			return nil, err
		}
		source = holidays.NewStaticSource(items)
	case f.Offline:
		source = holidays.StaticSource{}
	default:
		source = holidays.NewHTTPSource(ctx.Config.HolidayAPIURL, ctx.Config.HolidayCountry, ctx.Config.HolidayTimeout)
	}
	return holidays.NewCache(source, nil, ctx.Logger), nil
}

func readHolidays(path string) ([]holidays.Holiday, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []holidays.Holiday
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("holidays file %s: %w", path, err)
	}
	return items, nil
}

func (ctx *Context) service(resolver payroll.HolidayResolver) (*payroll.Service, error) {
	engine, err := ctx.Config.PayrollEngine()
	if err != nil {
		return nil, err
	}
	salary, err := ctx.Config.BaseSalary()
	if err != nil {
		return nil, err
	}
	return payroll.NewService(payroll.NewMemoryStore(), resolver, engine, salary, metrics.New(), ctx.Logger), nil
}

// shiftFields is the textual form of a shift shared by flags and files.
type shiftFields struct {
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	EndsNextDay bool   `json:"endsNextDay"`
	BreakStart  string `json:"breakStart"`
	BreakEnd    string `json:"breakEnd"`
}

func (f shiftFields) parse() (payroll.ShiftInput, error) {
	var shift payroll.ShiftInput
	var err error
	if shift.Date, err = payroll.ParseDate(strings.TrimSpace(f.Date)); err != nil {
		return shift, err
	}
	if shift.Start, err = payroll.ParseClock(strings.TrimSpace(f.StartTime)); err != nil {
		return shift, fmt.Errorf("start: %w", err)
	}
	if shift.End, err = payroll.ParseClock(strings.TrimSpace(f.EndTime)); err != nil {
		return shift, fmt.Errorf("end: %w", err)
	}
	shift.EndsNextDay = f.EndsNextDay
	if f.BreakStart == "" && f.BreakEnd == "" {
		return shift, nil
	}
	shift.IncludeBreak = true
	if shift.BreakStart, err = payroll.ParseClock(strings.TrimSpace(f.BreakStart)); err != nil {
		return shift, fmt.Errorf("break start: %w", err)
	}
	if shift.BreakEnd, err = payroll.ParseClock(strings.TrimSpace(f.BreakEnd)); err != nil {
		return shift, fmt.Errorf("break end: %w", err)
	}
	return shift, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
