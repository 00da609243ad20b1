package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusVariableTracksLastCommand(t *testing.T) {
	st := testState(t)
	st.ExitStatus = 7
	val, ok := st.Var("?")
	require.True(t, ok)
	assert.Equal(t, "7", val)

	st.SetVar("?", "0")
	val, _ = st.Var("?")
	assert.Equal(t, "7", val, "the status variable must not be writable")
	_, stored := st.Vars["?"]
	assert.False(t, stored)
}

func TestEnvironSortedPairs(t *testing.T) {
	st := testState(t)
	st.Vars = map[string]string{"B": "2", "A": "1", "C": "3"}
	assert.Equal(t, []string{"A=1", "B=2", "C=3"}, st.Environ())
}

func TestVarLookup(t *testing.T) {
	st := testState(t)
	st.Vars["X"] = "y"
	val, ok := st.Var("X")
	require.True(t, ok)
	assert.Equal(t, "y", val)

	_, ok = st.Var("MISSING")
	assert.False(t, ok)
}
