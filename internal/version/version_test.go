package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures the rendered forms stay consistent with Version.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
	require.Equal(t, "chimed/"+Short(), UserAgent())
}
