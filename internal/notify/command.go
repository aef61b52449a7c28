package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Placeholders understood by the command presenter.
const (
	PlaceholderID    = "{id}"
	PlaceholderTitle = "{title}"
	PlaceholderBody  = "{body}"
	PlaceholderTime  = "{time}"
	PlaceholderGroup = "{group}"
)

// errEmptyArgv is returned when a command presenter is built without a binary.
var errEmptyArgv = errors.New("notify command is empty")

// CommandPresenter runs a configured command once per firing. Alert fields
// are substituted into the argv template before execution, so a desktop
// notifier can receive the alarm id as its replace/update key.
type CommandPresenter struct {
	argv []string
}

// NewCommandPresenter builds a presenter around the provided argv template.
// The first element is the binary; every element may contain placeholders.
func NewCommandPresenter(argv []string) (*CommandPresenter, error) {
	if len(argv) == 0 {
		return nil, errEmptyArgv
	}

	return &CommandPresenter{argv: argv}, nil
}

// Present executes the configured command with placeholders expanded.
// The context bounds the whole invocation.
func (p *CommandPresenter) Present(ctx context.Context, event Event) error {
	argv := ExpandArgv(p.argv, event)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	// Distinguish a timeout from the command itself failing.
	if ctx.Err() != nil {
		return fmt.Errorf("run notify command: %w", ctx.Err())
	}

	if out := strings.TrimSpace(string(output)); out != "" {
		return fmt.Errorf("run notify command: %w (output: %s)", err, out)
	}

	return fmt.Errorf("run notify command: %w", err)
}

// ExpandArgv substitutes event fields into every element of the template.
func ExpandArgv(argv []string, event Event) []string {
	replacer := strings.NewReplacer(
		PlaceholderID, event.Alarm.ID,
		PlaceholderTitle, event.Title(),
		PlaceholderBody, event.Body(),
		PlaceholderTime, event.Alarm.Time,
		PlaceholderGroup, event.Group,
	)

	expanded := make([]string, len(argv))
	for i, arg := range argv {
		expanded[i] = replacer.Replace(arg)
	}

	return expanded
}
