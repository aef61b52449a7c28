// Package schedule contains the trigger data model shared by the daemon and
// the control client.
//
// It defines Snapshot (the complete set of alarm groups delivered by the
// foreground owner), Group and Alarm (plain wire data), and the derived
// matching types ClockTime and DaySet. Snapshots are stored as delivered:
// matching semantics are computed on read, so partially-formed input degrades
// to "never due" or "every day" instead of failing.
package schedule
