package daemon

import (
	"fmt"
	"time"
)

// NYSE full-day closures
var usHolidays = []string{
	"2024-01-01", // New Year's Day
	"2024-01-15", // MLK Day
	"2024-02-19", // Presidents Day
	"2024-03-29", // Good Friday
	"2024-05-27", // Memorial Day
	"2024-06-19", // Juneteenth
	"2024-07-04", // Independence Day
	"2024-09-02", // Labor Day
	"2024-11-28", // Thanksgiving
	"2024-12-25", // Christmas

	"2025-01-01",
	"2025-01-20",
	"2025-02-17",
	"2025-04-18",
	"2025-05-26",
	"2025-06-19",
	"2025-07-04",
	"2025-09-01",
	"2025-11-27",
	"2025-12-25",

	"2026-01-01",
	"2026-01-19",
	"2026-02-16",
	"2026-04-03",
	"2026-05-25",
	"2026-06-19",
	"2026-07-03", // observed
	"2026-09-07",
	"2026-11-26",
	"2026-12-25",

	"2027-01-01",
	"2027-01-18",
	"2027-02-15",
	"2027-03-26",
	"2027-05-31",
	"2027-06-18", // observed
	"2027-07-05", // observed
	"2027-09-06",
	"2027-11-25",
	"2027-12-24", // observed
}

// Calendar answers trading-day questions in the exchange time zone
type Calendar struct {
	loc      *time.Location
	holidays map[string]bool
}

// NewCalendar creates a US equity calendar evaluated in loc
func NewCalendar(loc *time.Location) *Calendar {
	h := make(map[string]bool, len(usHolidays))
	for _, d := range usHolidays {
		h[d] = true
	}
	return &Calendar{loc: loc, holidays: h}
}

// Location returns the calendar time zone
func (c *Calendar) Location() *time.Location { return c.loc }

// IsHoliday reports whether t falls on an exchange holiday
func (c *Calendar) IsHoliday(t time.Time) bool {
	return c.holidays[t.In(c.loc).Format("2006-01-02")]
}

// IsTradingDay reports whether the exchange has a session on t's date
func (c *Calendar) IsTradingDay(t time.Time) bool {
	local := t.In(c.loc)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !c.IsHoliday(local)
}

// ClosedReason explains why t is not a trading day, or "" when it is
func (c *Calendar) ClosedReason(t time.Time) string {
	local := t.In(c.loc)
	switch {
	case local.Weekday() == time.Saturday || local.Weekday() == time.Sunday:
		return "weekend"
	case c.IsHoliday(local):
		return "holiday"
	}
	return ""
}

// PreviousTradingDay returns the last trading day strictly before t
func (c *Calendar) PreviousTradingDay(t time.Time) time.Time {
	d := t.In(c.loc)
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc)
	for {
		d = d.AddDate(0, 0, -1)
		if c.IsTradingDay(d) {
			return d
		}
	}
}

// FormatDuration formats d as hours and minutes
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "0s"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
