package herrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnresolvedIncludeError(t *testing.T) {
	err := &UnresolvedIncludeError{
		Spelling:      "foo.h",
		IncludingPath: "/src/main.c",
		Line:          12,
		Suggestion:    "foo.hh",
	}
	assert.Equal(t, KindUnresolvedInclude, err.Kind())
	assert.Contains(t, err.Error(), "foo.h")
	assert.Contains(t, err.Error(), "did you mean")
}

func TestUnresolvedIncludeErrorNoSuggestion(t *testing.T) {
	err := &UnresolvedIncludeError{Spelling: "<stdio.h>", IncludingPath: "a.c", Line: 1}
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestExternalToolErrorUnwrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &ExternalToolError{Tool: "c2rust", ExitCode: 1, StderrTail: "panic", Underlying: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindExternalTool, err.Kind())
}

func TestNotTranspilableErrorUnwrap(t *testing.T) {
	cause := errors.New("transpile failed")
	err := &NotTranspilableError{DefineSet: "{A: None}", Underlying: cause}
	assert.ErrorIs(t, err, cause)
}

func TestAssertfPanicsOnFalse(t *testing.T) {
	require.Panics(t, func() {
		Assertf(false, "invariant %s broken", "X")
	})
}

func TestAssertfNoopOnTrue(t *testing.T) {
	require.NotPanics(t, func() {
		Assertf(true, "never shown")
	})
}

func TestMultiErrorSummary(t *testing.T) {
	m := &MultiError{Errors: []error{errors.New("a"), errors.New("b")}}
	assert.Contains(t, m.Error(), "2 units failed")
	assert.Len(t, m.Unwrap(), 2)
}

func TestMultiErrorSingle(t *testing.T) {
	only := errors.New("solo")
	m := &MultiError{Errors: []error{only}}
	assert.Equal(t, "solo", m.Error())
}

func TestUnitErrorInterface(t *testing.T) {
	var u UnitError = &RecursiveExpansionError{MacroName: "A"}
	assert.Equal(t, KindRecursiveExpansion, u.Kind())
	assert.Contains(t, u.Error(), "A")
}
