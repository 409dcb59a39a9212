package copilot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionDefaults(t *testing.T) {
	session := NewSession("s1", "")

	assert.Equal(t, "s1", session.ID)
	assert.Equal(t, DefaultWorkingCode, session.WorkingCode)
	assert.Nil(t, session.Last)
	assert.False(t, session.Integrated)

	session = NewSession("s2", "x = 1")
	assert.Equal(t, "x = 1", session.WorkingCode)
}

func TestIntegrateWithoutSuggestion(t *testing.T) {
	session := NewSession("s1", "x = 1")

	err := session.Integrate()

	assert.ErrorIs(t, err, ErrNothingToIntegrate)
	assert.Equal(t, "x = 1", session.WorkingCode)
	assert.False(t, session.Integrated)
}

func TestIntegrateReplacesWorkingCode(t *testing.T) {
	session := NewSession("s1", "")
	session.apply(Round{
		Original: "print(1)",
		Result:   SuggestionResult{ImprovedCode: "print(2)", Explanation: "Changed the constant."},
	})

	require.NoError(t, session.Integrate())
	assert.Equal(t, "print(2)", session.WorkingCode)

	assert.True(t, session.ConsumeIntegrated())
	assert.False(t, session.ConsumeIntegrated(), "the flag is shown for one render only")
	assert.Equal(t, "print(2)", session.WorkingCode)
}

func TestIntegrateTwiceIsIdempotent(t *testing.T) {
	session := NewSession("s1", "")
	session.apply(Round{Original: "a", Result: SuggestionResult{ImprovedCode: "b"}})

	require.NoError(t, session.Integrate())
	require.NoError(t, session.Integrate())
	assert.Equal(t, "b", session.WorkingCode)
}
