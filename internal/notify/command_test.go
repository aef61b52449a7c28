package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestExpandArgv checks placeholder substitution across argv elements.
func TestExpandArgv(t *testing.T) {
	t.Parallel()

	argv := ExpandArgv([]string{
		"notify-send",
		"--hint", "string:x-canonical-private-synchronous:{id}",
		"{title}",
		"{body} at {time} in {group}",
	}, sampleEvent())

	require.Equal(t, []string{
		"notify-send",
		"--hint", "string:x-canonical-private-synchronous:a1",
		"Standup",
		"09:30 (Work) at 09:30 in Work",
	}, argv)
}

// TestExpandArgvGenericTitle ensures the fallback headline reaches the command.
func TestExpandArgvGenericTitle(t *testing.T) {
	t.Parallel()

	event := sampleEvent()
	event.Alarm.Label = ""

	argv := ExpandArgv([]string{"{title}"}, event)
	require.Equal(t, []string{DefaultTitle}, argv)
}

// TestNewCommandPresenterRequiresArgv rejects an empty template.
func TestNewCommandPresenterRequiresArgv(t *testing.T) {
	t.Parallel()

	_, err := NewCommandPresenter(nil)
	require.ErrorIs(t, err, errEmptyArgv)
}

// TestCommandPresenterReportsFailure surfaces a command that cannot run.
func TestCommandPresenterReportsFailure(t *testing.T) {
	t.Parallel()

	p, err := NewCommandPresenter([]string{"/nonexistent/chimed-test-notifier", "{id}"})
	require.NoError(t, err)

	err = p.Present(context.Background(), sampleEvent())
	require.Error(t, err)
}
