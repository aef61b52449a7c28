package ctl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDetectActor ensures hostname and username are detected and non-empty.
func TestDetectActor(t *testing.T) {
	t.Parallel()

	actor, err := DetectActor()
	require.NoError(t, err)
	require.NotEmpty(t, actor.Hostname)
	require.NotEmpty(t, actor.Username)
}

func TestActorString(t *testing.T) {
	t.Parallel()

	actor := &Actor{Hostname: "atelier", Username: "mira"}
	require.Equal(t, "mira@atelier", actor.String())
}
