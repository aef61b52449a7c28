package schedule

import (
	"fmt"
	"time"
)

// ClockTime is a minute-resolution wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses the wire form "HH:MM" (zero-padded, 24-hour).
// It reports false for anything else; callers treat such alarms as never
// due rather than raising an error.
func ParseClockTime(s string) (ClockTime, bool) {
	if len(s) != 5 || s[2] != ':' {
		return ClockTime{}, false
	}

	if !isDigit(s[0]) || !isDigit(s[1]) || !isDigit(s[3]) || !isDigit(s[4]) {
		return ClockTime{}, false
	}

	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')

	if hour > 23 || minute > 59 {
		return ClockTime{}, false
	}

	return ClockTime{Hour: hour, Minute: minute}, true
}

// Matches reports whether t falls within the same minute of day.
// No rounding: 07:00:59 matches 07:00, 07:01:00 does not.
func (c ClockTime) Matches(t time.Time) bool {
	return t.Hour() == c.Hour && t.Minute() == c.Minute
}

// String renders the canonical zero-padded "HH:MM" form.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
