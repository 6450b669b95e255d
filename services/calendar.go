package services

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage and wire format of calendar dates.
const DateLayout = "2006-01-02"

// Calendar answers "what day is it" in the service timezone. The clock is
// injectable so tests can walk through days.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar returns a calendar for loc (UTC when nil) driven by now (time.Now when nil).
func NewCalendar(loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{loc: loc, now: now}
}

// Today returns the current calendar date in the service timezone.
func (c *Calendar) Today() string {
	return c.now().In(c.loc).Format(DateLayout)
}

// ParseDate validates s as a YYYY-MM-DD calendar date and returns it normalised.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t.Format(DateLayout), nil
}

// AddDays shifts a valid date by n calendar days. Arithmetic runs in UTC so DST never skews it.
func AddDays(date string, n int) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// DaysBetween returns to - from in whole calendar days.
func DaysBetween(from, to string) int {
	a, errA := time.Parse(DateLayout, from)
	b, errB := time.Parse(DateLayout, to)
	if errA != nil || errB != nil {
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}
