package cli

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A poisoned environment makes container construction fail, so these tests
// observe whether a code path builds the container at all.
func poisonEnvironment(t *testing.T) {
	t.Helper()
	t.Setenv("FINTASK_HTTP_PORT", "not-a-number")
}

func TestHelpRunsWithoutBuildingContainer(t *testing.T) {
	poisonEnvironment(t)

	root := NewRootCmd(Options{})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--help"})

	require.NoError(t, root.Execute())
}

func TestBareInvocationShowsHelpWithoutContainer(t *testing.T) {
	poisonEnvironment(t)

	root := NewRootCmd(Options{})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{})

	require.NoError(t, root.Execute())
}

func TestQuerySurfacesContainerBuildFailure(t *testing.T) {
	poisonEnvironment(t)

	root := NewRootCmd(Options{})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"query", "show my tasks"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT")
}
