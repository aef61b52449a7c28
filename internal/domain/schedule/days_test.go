package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestParseWeekday verifies tag parsing is case-insensitive and rejects
// unknown tags.
func TestParseWeekday(t *testing.T) {
	t.Parallel()

	d, ok := ParseWeekday("Mon")
	require.True(t, ok)
	require.Equal(t, time.Monday, d)

	d, ok = ParseWeekday("sun")
	require.True(t, ok)
	require.Equal(t, time.Sunday, d)

	d, ok = ParseWeekday("SAT")
	require.True(t, ok)
	require.Equal(t, time.Saturday, d)

	for _, tag := range []string{"", "Monday", "M", "foo", "Mo n"} {
		_, ok = ParseWeekday(tag)
		require.False(t, ok, "expected %q to be rejected", tag)
	}
}

// TestDaySetFrom verifies unknown tags are dropped rather than failing.
func TestDaySetFrom(t *testing.T) {
	t.Parallel()

	s := DaySetFrom([]string{"Mon", "Wed", "bogus", "fri"})
	require.True(t, s.Contains(time.Monday))
	require.True(t, s.Contains(time.Wednesday))
	require.True(t, s.Contains(time.Friday))
	require.False(t, s.Contains(time.Tuesday))
	require.False(t, s.Contains(time.Sunday))

	// A list with no recognizable tags degrades to the empty set.
	require.True(t, DaySetFrom([]string{"bogus", "nope"}).IsEmpty())
	require.True(t, DaySetFrom(nil).IsEmpty())
}

// TestDaySetAllows verifies the empty set allows every day while a
// non-empty set restricts to its members.
func TestDaySetAllows(t *testing.T) {
	t.Parallel()

	var empty DaySet
	for d := time.Sunday; d <= time.Saturday; d++ {
		require.True(t, empty.Allows(d))
	}

	s := DaySetFrom([]string{"Mon"})
	require.True(t, s.Allows(time.Monday))
	require.False(t, s.Allows(time.Tuesday))
	require.False(t, s.Allows(time.Sunday))
}

// TestDaySetTags verifies canonical rendering order (Sunday first).
func TestDaySetTags(t *testing.T) {
	t.Parallel()

	s := DaySetFrom([]string{"fri", "Sun", "mon"})
	require.Equal(t, []string{"Sun", "Mon", "Fri"}, s.Tags())
	require.Nil(t, DaySet(0).Tags())
}

// TestWeekdayTag verifies the weekday-to-tag mapping round-trips.
func TestWeekdayTag(t *testing.T) {
	t.Parallel()

	for d := time.Sunday; d <= time.Saturday; d++ {
		parsed, ok := ParseWeekday(WeekdayTag(d))
		require.True(t, ok)
		require.Equal(t, d, parsed)
	}
}
