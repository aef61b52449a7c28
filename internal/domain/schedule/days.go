package schedule

import (
	"strings"
	"time"
)

// DaySet is a bit set of weekdays; bit n corresponds to time.Weekday(n).
type DaySet uint8

// weekdayTags is the wire enumeration, indexed by time.Weekday.
var weekdayTags = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// ParseWeekday maps a wire tag to its weekday. Tags are matched
// case-insensitively; unknown tags report false.
func ParseWeekday(tag string) (time.Weekday, bool) {
	for d, t := range weekdayTags {
		if strings.EqualFold(tag, t) {
			return time.Weekday(d), true
		}
	}

	return 0, false
}

// WeekdayTag returns the canonical wire tag for d.
func WeekdayTag(d time.Weekday) string {
	return weekdayTags[d]
}

// DaySetFrom builds a set from wire tags, ignoring unknown ones. A list with
// no recognizable tags yields the empty set, which allows every day.
func DaySetFrom(tags []string) DaySet {
	var s DaySet

	for _, tag := range tags {
		if d, ok := ParseWeekday(tag); ok {
			s |= 1 << uint(d)
		}
	}

	return s
}

// IsEmpty reports whether no weekday is set.
func (s DaySet) IsEmpty() bool {
	return s == 0
}

// Contains reports whether d is a member of the set.
func (s DaySet) Contains(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Allows reports whether an alarm restricted by this set may fire on d.
// The empty set places no restriction.
func (s DaySet) Allows(d time.Weekday) bool {
	return s.IsEmpty() || s.Contains(d)
}

// Tags returns the canonical wire tags of the set members, Sunday first.
func (s DaySet) Tags() []string {
	var tags []string

	for d := range weekdayTags {
		if s.Contains(time.Weekday(d)) {
			tags = append(tags, weekdayTags[d])
		}
	}

	return tags
}
