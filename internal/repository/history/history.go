package history

import (
	"context"
	"time"
)

// Firing is one journal row describing a granted firing.
type Firing struct {
	// Seq is the journal sequence number, assigned on insert.
	Seq int64 `json:"seq"`
	// AlarmID identifies the fired trigger.
	AlarmID string `json:"alarmId"`
	// Label is the trigger's title at firing time. May be empty.
	Label string `json:"label,omitempty"`
	// GroupName is the owning group's display name.
	GroupName string `json:"group,omitempty"`
	// Time is the trigger's scheduled time of day, "HH:MM".
	Time string `json:"time"`
	// FiredAt is the instant the engine granted the firing.
	FiredAt time.Time `json:"firedAt"`
	// Delivered reports whether presentation succeeded.
	Delivered bool `json:"delivered"`
	// Error carries the presenter failure text when Delivered is false.
	Error string `json:"error,omitempty"`
}

// Filter narrows List results.
type Filter struct {
	// AlarmID restricts results to one trigger when non-empty.
	AlarmID string
	// Limit caps the number of rows returned; 0 means no cap.
	Limit int
}

// Recorder is the subset of the journal the engine writes to. Readers declare
// their own interfaces at the point of use.
type Recorder interface {
	Record(ctx context.Context, firing Firing) error
}
