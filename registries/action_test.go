package registries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_SplitsQuotedArgs(t *testing.T) {
	r := NewActionRegistry(nil)
	var gotArgs []string
	require.NoError(t, r.Register("open", func(args []string) (string, error) {
		gotArgs = args
		return "opened", nil
	}))

	result, err := Dispatch(r, `open "https://example.com/a b" --new-tab`)
	require.NoError(t, err)
	assert.Equal(t, "opened", result)
	assert.Equal(t, []string{"https://example.com/a b", "--new-tab"}, gotArgs)
}

func TestDispatch_UnknownAction(t *testing.T) {
	r := NewActionRegistry(nil)
	_, err := Dispatch(r, "nonexistent arg")
	assert.Error(t, err)
}

func TestDispatch_EmptyInput(t *testing.T) {
	r := NewActionRegistry(nil)
	_, err := Dispatch(r, "")
	assert.Error(t, err)
}
