package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/chimed/chimed/internal/domain/schedule"
	"github.com/chimed/chimed/internal/logger"
)

// DefaultTitle is the alert headline used when the fired alarm has no label.
const DefaultTitle = "Alarm"

// Event is one granted firing handed to presenters.
type Event struct {
	// Alarm is the trigger that fired.
	Alarm schedule.Alarm `json:"alarm"`
	// Group is the name of the alarm's owning group.
	Group string `json:"group"`
	// FiredAt is the instant the engine granted the firing.
	FiredAt time.Time `json:"firedAt"`
}

// Title returns the alert headline: the alarm label, or a generic one when
// the label is empty.
func (e Event) Title() string {
	if e.Alarm.Label == "" {
		return DefaultTitle
	}

	return e.Alarm.Label
}

// Body returns the alert text: the alarm's scheduled time and owning group.
func (e Event) Body() string {
	if e.Group == "" {
		return e.Alarm.Time
	}

	return fmt.Sprintf("%s (%s)", e.Alarm.Time, e.Group)
}

// Presenter displays a fired alarm to the user. Implementations must treat
// Event.Alarm.ID as the idempotency key: presenting the same id again
// replaces a still-visible alert for that id instead of stacking a
// duplicate. Failures are not retried by the engine.
type Presenter interface {
	Present(ctx context.Context, event Event) error
}

// LogPresenter writes firings to the process log. It is always active as the
// delivery of last resort.
type LogPresenter struct{}

// Present logs the alert at info level and never fails.
func (LogPresenter) Present(ctx context.Context, event Event) error {
	logger.InfoKV(ctx, "Alarm notification",
		"alarm_id", event.Alarm.ID,
		"title", event.Title(),
		"body", event.Body(),
		"fired_at", event.FiredAt.Format(time.RFC3339),
	)

	return nil
}
