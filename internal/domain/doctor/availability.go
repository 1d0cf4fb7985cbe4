package doctor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ValidTime reports whether s is a zero-padded 24h "HH:mm" string.
func ValidTime(s string) bool {
	return timePattern.MatchString(s)
}

// MinutesOf converts a valid "HH:mm" string to minutes since midnight.
// Callers must validate the format first.
func MinutesOf(s string) int {
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	return h*60 + m
}

// WeekdayName returns the lowercase weekday name used as a WeeklyClocks key.
func WeekdayName(date time.Time) string {
	return strings.ToLower(date.Weekday().String())
}

// DateOnly strips the time-of-day component and normalizes to UTC midnight.
// Request dates parse as UTC while the server clock runs in local time;
// pinning both to the same location makes day comparisons compare calendar
// days instead of instants.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WorkingHours resolves the doctor's hours for the date's weekday. The
// second return value is false when the doctor does not work that day.
func (d *Doctor) WorkingHours(date time.Time) (DayHours, bool) {
	if d.Clocks == nil {
		return DayHours{}, false
	}
	hours, ok := d.Clocks[WeekdayName(date)]
	if !ok || hours.Start == "" || hours.End == "" {
		return DayHours{}, false
	}
	return hours, true
}

// OnLeave reports whether the date falls within any leave range, at day
// granularity with inclusive bounds.
func (d *Doctor) OnLeave(date time.Time) bool {
	day := DateOnly(date)
	for _, r := range d.UnavailableDates {
		if !day.Before(DateOnly(r.StartDate)) && !day.After(DateOnly(r.EndDate)) {
			return true
		}
	}
	return false
}

// Within reports whether a slot starting at the given "HH:mm" falls inside
// the working window. The interval is half-open: a slot starting exactly at
// the end of the window would run past closing and is not bookable.
func (h DayHours) Within(start string) bool {
	m := MinutesOf(start)
	return m >= MinutesOf(h.Start) && m < MinutesOf(h.End)
}

// Validate checks every configured day: both ends present or both empty,
// valid "HH:mm" format, and start strictly before end. Lexical comparison
// is valid because the format is fixed-width zero-padded.
func (c WeeklyClocks) Validate() error {
	for day, hours := range c {
		if !validWeekday(day) {
			return fmt.Errorf("unknown weekday %q", day)
		}
		if hours.Start == "" && hours.End == "" {
			continue
		}
		if hours.Start == "" || hours.End == "" {
			return fmt.Errorf("%s: start and end must both be set or both be empty", day)
		}
		if !ValidTime(hours.Start) {
			return fmt.Errorf("%s: invalid start time %q, expected HH:mm", day, hours.Start)
		}
		if !ValidTime(hours.End) {
			return fmt.Errorf("%s: invalid end time %q, expected HH:mm", day, hours.End)
		}
		if hours.Start >= hours.End {
			return fmt.Errorf("%s: start %s must be before end %s", day, hours.Start, hours.End)
		}
	}
	return nil
}

func validWeekday(day string) bool {
	switch day {
	case "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday":
		return true
	}
	return false
}
