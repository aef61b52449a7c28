package schedule

import "time"

// Alarm is a single recurring time trigger.
type Alarm struct {
	// ID is an opaque identifier, unique within a snapshot. It is the dedup
	// key and the idempotency key of the presented alert.
	ID string `json:"id" yaml:"id"`
	// Label is the human-readable title. May be empty.
	Label string `json:"label" yaml:"label,omitempty"`
	// Time is the wall-clock time of day in zero-padded 24-hour "HH:MM" form.
	Time string `json:"time" yaml:"time"`
	// Days restricts firing to the listed weekday tags (Sun..Sat).
	// An empty list means every day.
	Days []string `json:"days" yaml:"days,omitempty"`
	// IsEnabled gates the alarm; disabled alarms are never due.
	IsEnabled bool `json:"isEnabled" yaml:"enabled"`
}

// Group is a named, independently enable-able collection of alarms.
// Alarm order within the group defines scan order.
type Group struct {
	// Name is the display label of the group.
	Name string `json:"name" yaml:"name"`
	// IsEnabled gates the whole group; no alarm in a disabled group is due.
	IsEnabled bool `json:"isEnabled" yaml:"enabled"`
	// Alarms is the ordered list of triggers in this group.
	Alarms []Alarm `json:"alarms" yaml:"alarms,omitempty"`
}

// Snapshot is the complete set of groups delivered by the foreground owner.
// It replaces all prior state wholesale; the engine never edits it in place.
type Snapshot struct {
	Groups []Group `json:"groups" yaml:"groups"`
}

// DueAt reports whether the alarm's time and weekday conditions match the
// instant t. Enabled flags are the caller's concern; an alarm with an
// unparseable time never matches.
func (a *Alarm) DueAt(t time.Time) bool {
	ct, ok := ParseClockTime(a.Time)
	if !ok || !ct.Matches(t) {
		return false
	}

	return DaySetFrom(a.Days).Allows(t.Weekday())
}

// Clone returns a deep copy of the alarm.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a
	if a.Days != nil {
		cloned.Days = make([]string, len(a.Days))
		copy(cloned.Days, a.Days)
	}

	return &cloned
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}

	cloned := *g
	if g.Alarms != nil {
		cloned.Alarms = make([]Alarm, len(g.Alarms))
		for i := range g.Alarms {
			cloned.Alarms[i] = *g.Alarms[i].Clone()
		}
	}

	return &cloned
}

// Clone returns a deep copy of the snapshot to avoid leaking internal
// references.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	cloned := &Snapshot{}
	if s.Groups != nil {
		cloned.Groups = make([]Group, len(s.Groups))
		for i := range s.Groups {
			cloned.Groups[i] = *s.Groups[i].Clone()
		}
	}

	return cloned
}

// CountAlarms returns the total number of alarms across all groups,
// enabled or not.
func (s *Snapshot) CountAlarms() int {
	if s == nil {
		return 0
	}

	var n int
	for i := range s.Groups {
		n += len(s.Groups[i].Alarms)
	}

	return n
}
