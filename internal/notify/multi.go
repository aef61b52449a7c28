package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Multi fans a firing out to several presenters. Every presenter is called
// even when an earlier one fails; their errors are aggregated.
type Multi []Presenter

// Present calls every child presenter with the same event.
func (m Multi) Present(ctx context.Context, event Event) error {
	var errs error

	for _, p := range m {
		errs = multierr.Append(errs, p.Present(ctx, event))
	}

	return errs
}
