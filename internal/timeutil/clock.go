package timeutil

import (
	"fmt"
	"time"

	"github.com/nkamath/calshare/internal/model"
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// Date is a civil calendar date, interpreted in some timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// WallClock pairs a civil date with a time of day.
type WallClock struct {
	Date  Date
	Clock Clock
}

// ParseClock parses zero-padded "HH:MM" (24-hour). Out-of-range or
// malformed input fails with model.ErrInvalidTime. The length check
// stays on top of time.Parse, which would otherwise accept "9:30".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return Clock{}, fmt.Errorf("wall-clock time %q: %w", s, model.ErrInvalidTime)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("date %q: %w", s, model.ErrInvalidTime)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// ToAbsolute resolves a wall-clock date and time in loc to an absolute
// instant in UTC. Local times that do not exist in loc (DST gaps) are
// normalized forward the way time.Date defines.
func ToAbsolute(d Date, c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc).UTC()
}

// ToWallClock converts an absolute instant to the wall-clock date and time
// observed in loc. For every valid instant x and zone z,
// ToAbsolute(ToWallClock(x, z), z) == x.
func ToWallClock(t time.Time, loc *time.Location) WallClock {
	local := t.In(loc)
	return WallClock{
		Date:  Date{Year: local.Year(), Month: local.Month(), Day: local.Day()},
		Clock: Clock{Hour: local.Hour(), Minute: local.Minute()},
	}
}

// Month identifies a calendar month in some timezone.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("month %q: %w", s, model.ErrInvalidTime)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month the instant falls in when observed in loc.
func MonthOf(t time.Time, loc *time.Location) Month {
	local := t.In(loc)
	return Month{Year: local.Year(), Month: local.Month()}
}

// Bounds returns the UTC instants of the month's start and the next
// month's start in loc, a half-open [start, end) range.
func (m Month) Bounds(loc *time.Location) (time.Time, time.Time) {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 1, 0).UTC()
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
