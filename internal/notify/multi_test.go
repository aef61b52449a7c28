package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type stubPresenter struct {
	err    error
	called int
}

func (s *stubPresenter) Present(_ context.Context, _ Event) error {
	s.called++
	return s.err
}

// TestMultiCallsEveryPresenter ensures one failing child does not starve
// the others and that errors are aggregated.
func TestMultiCallsEveryPresenter(t *testing.T) {
	t.Parallel()

	failing := &stubPresenter{err: errors.New("display refused")}
	healthy := &stubPresenter{}

	m := Multi{failing, healthy}

	err := m.Present(context.Background(), sampleEvent())
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 1)
	require.Equal(t, 1, failing.called)
	require.Equal(t, 1, healthy.called)
}

// TestMultiAllHealthy returns nil when every child succeeds.
func TestMultiAllHealthy(t *testing.T) {
	t.Parallel()

	healthy := &stubPresenter{}

	err := Multi{healthy, healthy}.Present(context.Background(), sampleEvent())
	require.NoError(t, err)
	require.Equal(t, 2, healthy.called)
}
