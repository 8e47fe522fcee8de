// Package analytics computes period windows, per-category spend statistics,
// budget progress and monthly trend series from already-persisted items.
package analytics

import (
	"fmt"
	"time"

	"gagyebu/internal/core"
)

// Period is a contiguous date window, either a Monday-Sunday week or a
// calendar month, derived from a reference date and a view mode.
type Period struct {
	Mode  core.PeriodType `json:"mode"`
	Start core.Date       `json:"start"`
	End   core.Date       `json:"end"`
}

// PeriodFor computes the window containing the reference date. Weeks are
// anchored on Monday regardless of locale; months run first through last
// calendar day.
func PeriodFor(ref core.Date, mode core.PeriodType) Period {
	if mode == core.Weekly {
		// time.Weekday has Sunday = 0; shift so Monday starts the week.
		offset := int(ref.Weekday()) - int(time.Monday)
		if offset < 0 {
			offset += 7
		}
		start := ref.AddDays(-offset)
		return Period{Mode: core.Weekly, Start: start, End: start.AddDays(6)}
	}
	start := core.NewDate(ref.Year(), int(ref.Month()), 1)
	return Period{Mode: core.Monthly, Start: start, End: start.AddMonths(1).AddDays(-1)}
}

// Previous returns the reference date shifted one window back.
func Previous(ref core.Date, mode core.PeriodType) core.Date {
	if mode == core.Weekly {
		return ref.AddDays(-7)
	}
	return ref.AddMonths(-1)
}

// Next returns the reference date shifted one window forward.
func Next(ref core.Date, mode core.PeriodType) core.Date {
	if mode == core.Weekly {
		return ref.AddDays(7)
	}
	return ref.AddMonths(1)
}

// Contains reports whether d falls inside the window, boundaries included.
func (p Period) Contains(d core.Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Label renders the window the way the analytics view titles it:
// "3월 10일 - 3월 16일" for weeks, "2025년 3월" for months.
func (p Period) Label() string {
	if p.Mode == core.Weekly {
		return fmt.Sprintf("%d월 %d일 - %d월 %d일",
			int(p.Start.Month()), p.Start.Day(), int(p.End.Month()), p.End.Day())
	}
	return fmt.Sprintf("%d년 %d월", p.Start.Year(), int(p.Start.Month()))
}
