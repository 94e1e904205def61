// Package dates parses and formats the club's local calendar dates.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	inputLayout   = "2/1/2006"
	displayLayout = "02/01/2006"
	keyLayout     = "2006-01-02"
	monthLayout   = "2006-01"
)

// ErrInvalidFormat is returned when a date is malformed or does not exist.
var ErrInvalidFormat = errors.New("dates: invalid date, expected DD/MM/YYYY")

var weekdayNames = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

var monthNames = [...]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"}

// Parse reads a D/M/YYYY date and anchors it to local midnight in loc.
func Parse(text string, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	parts := strings.Split(text, "/")
	if len(parts) != 3 || len(parts[2]) != 4 {
		return time.Time{}, fmt.Errorf("%q: %w", text, ErrInvalidFormat)
	}
	// time.ParseInLocation rejects impossible days such as 31/02.
	t, err := time.ParseInLocation(inputLayout, text, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", text, ErrInvalidFormat)
	}
	return t, nil
}

// WeekdayOf returns the day of week with Sunday = 0.
func WeekdayOf(t time.Time) int {
	return int(t.Weekday())
}

// Format renders a date as DD/MM/YYYY.
func Format(t time.Time) string {
	return t.Format(displayLayout)
}

// FormatLong renders a date as "vendredi 9 février".
func FormatLong(t time.Time) string {
	return fmt.Sprintf("%s %d %s", weekdayNames[t.Weekday()], t.Day(), monthNames[t.Month()-1])
}

// FormatMonth renders the month of t as "février 2024".
func FormatMonth(t time.Time) string {
	return fmt.Sprintf("%s %d", monthNames[t.Month()-1], t.Year())
}

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Key is the storage key of a calendar day.
func Key(t time.Time) string {
	return t.Format(keyLayout)
}

// FromKey is the inverse of Key.
func FromKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(keyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", key, ErrInvalidFormat)
	}
	return t, nil
}

// MonthKey identifies the month of t, e.g. "2024-02".
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}

// ParseMonthKey returns the first day of the month identified by key.
func ParseMonthKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(monthLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", key, ErrInvalidFormat)
	}
	return t, nil
}

// MonthDays lists every day of now's month, at midnight in now's location.
func MonthDays(now time.Time) []time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var days []time.Time
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// MonthBounds returns the first and last day of t's month.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first, first.AddDate(0, 1, -1)
}
