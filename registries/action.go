package registries

import (
	"github.com/kballard/go-shellquote"

	"github.com/teranos/graphshell/errors"
)

// Action is an omnibar command handler: given argv-style tokens (already
// split from the free-text input), it performs the action and returns a
// human-readable result.
type Action func(args []string) (string, error)

// ActionRegistry resolves omnibar command names to handlers.
type ActionRegistry = Registry[Action]

// NewActionRegistry builds an empty action registry.
func NewActionRegistry(diag Diagnostics) *ActionRegistry {
	return New[Action]("action", diag)
}

// Dispatch splits a free-text omnibar command into argv-style tokens with
// shellquote (so quoted URLs and flags survive splitting), then resolves
// and invokes the matching action.
func Dispatch(registry *ActionRegistry, input string) (string, error) {
	tokens, err := shellquote.Split(input)
	if err != nil {
		return "", errors.Wrap(err, "parse omnibar command")
	}
	if len(tokens) == 0 {
		return "", errors.New("empty omnibar command")
	}

	action, ok := registry.Get(tokens[0])
	if !ok {
		return "", errors.Newf("unknown action: %s", tokens[0])
	}
	return action(tokens[1:])
}
