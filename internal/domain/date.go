package domain

import (
	"fmt"
	"time"
)

// DateLayout is the only accepted calendar date format. Due dates compare
// lexicographically, which is chronological only for this layout.
const DateLayout = "2006-01-02"

// Date is a calendar date in DateLayout form.
type Date string

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// ParseDate validates s against DateLayout.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the date.
func (d Date) Time() (time.Time, error) {
	return time.Parse(DateLayout, string(d))
}

// AddDays returns the date n calendar days after d.
func (d Date) AddDays(n int) (Date, error) {
	t, err := d.Time()
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", string(d), err)
	}
	return DateOf(t.AddDate(0, 0, n)), nil
}

// OnOrBefore reports d <= other.
func (d Date) OnOrBefore(other Date) bool {
	return d <= other
}

func (d Date) String() string { return string(d) }
