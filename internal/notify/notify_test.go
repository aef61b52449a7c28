package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chimed/chimed/internal/domain/schedule"
)

// sampleEvent returns a fully populated firing for presenter tests.
func sampleEvent() Event {
	return Event{
		Alarm: schedule.Alarm{
			ID:        "a1",
			Label:     "Standup",
			Time:      "09:30",
			IsEnabled: true,
		},
		Group:   "Work",
		FiredAt: time.Date(2024, time.January, 1, 9, 30, 0, 0, time.UTC),
	}
}

// TestEventTitle covers the generic-headline fallback for unlabeled alarms.
func TestEventTitle(t *testing.T) {
	t.Parallel()

	event := sampleEvent()
	require.Equal(t, "Standup", event.Title())

	event.Alarm.Label = ""
	require.Equal(t, DefaultTitle, event.Title())
}

// TestEventBody checks the alert text with and without a group name.
func TestEventBody(t *testing.T) {
	t.Parallel()

	event := sampleEvent()
	require.Equal(t, "09:30 (Work)", event.Body())

	event.Group = ""
	require.Equal(t, "09:30", event.Body())
}

// TestLogPresenter ensures the log sink never reports an error.
func TestLogPresenter(t *testing.T) {
	t.Parallel()

	err := LogPresenter{}.Present(context.Background(), sampleEvent())
	require.NoError(t, err)
}
